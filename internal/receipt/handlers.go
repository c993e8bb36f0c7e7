package receipt

import (
	"net/http"

	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler serves the printable bill of the current session.
type Handler struct {
	Service  *cart.Service
	Renderer Renderer
}

// Text handles GET /api/v1/session/invoice/receipt.
func (h Handler) Text(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, cart.KindInternal, "cart service not configured", nil)
		return
	}
	id, _ := common.SessionID(r.Context())
	inv, err := h.Service.Invoice(r.Context(), id)
	if err != nil {
		switch cart.Kind(err) {
		case cart.KindNoSession, cart.KindNoInvoice:
			common.JSONError(w, http.StatusNotFound, cart.Kind(err), "Invoice has not been generated yet", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, cart.KindInternal, "internal error", nil)
		}
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.Renderer.Render(inv)))
}
