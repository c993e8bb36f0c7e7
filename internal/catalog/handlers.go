package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes the public price list.
type Handler struct {
	catalog  *Catalog
	currency string
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Catalog  *Catalog
	Currency string
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{catalog: cfg.Catalog, currency: cfg.Currency}
}

// List handles GET /api/v1/catalog.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	if !h.configured(w) {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":     h.catalog.Items(),
		"currency": h.currency,
	})
}

// Item handles GET /api/v1/catalog/{item}; the key is matched like a cart add.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	item, ok := h.catalog.Lookup(chi.URLParam(r, "item"))
	if !ok {
		common.JSONError(w, http.StatusNotFound, "ITEM_NOT_FOUND", "Sorry, the item you entered is not available", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":     item,
		"currency": h.currency,
	})
}

func (h *Handler) configured(w http.ResponseWriter) bool {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return false
	}
	return true
}
