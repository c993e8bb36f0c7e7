package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

func TestDefaultLookupNormalizesKeys(t *testing.T) {
	c := catalog.Default()
	require.Equal(t, 9, c.Len())

	item, ok := c.Lookup("  Paneer ")
	require.True(t, ok)
	require.Equal(t, "paneer", item.Key)
	require.Equal(t, "Paneer", item.Name)
	require.Equal(t, "kg", item.Unit)
	require.True(t, item.UnitPrice.Equal(pricing.FromInt(400)))

	_, ok = c.Lookup("gold")
	require.False(t, ok)
}

func TestItemsPreserveListingOrder(t *testing.T) {
	items := catalog.Default().Items()
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.Key)
	}
	require.Equal(t, []string{"rice", "sugar", "salt", "oil", "paneer", "maggi", "boost", "colgate", "soap"}, keys)

	items[0].Key = "mutated"
	first, ok := catalog.Default().Lookup("rice")
	require.True(t, ok)
	require.Equal(t, "rice", first.Key)
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	_, err := catalog.New([]catalog.Item{{Key: " ", UnitPrice: pricing.FromInt(1)}})
	require.ErrorIs(t, err, catalog.ErrInvalidItem)

	_, err = catalog.New([]catalog.Item{{Key: "tea", UnitPrice: pricing.Zero()}})
	require.ErrorIs(t, err, catalog.ErrInvalidItem)

	_, err = catalog.New([]catalog.Item{
		{Key: "tea", UnitPrice: pricing.FromInt(5)},
		{Key: "TEA", UnitPrice: pricing.FromInt(6)},
	})
	require.ErrorIs(t, err, catalog.ErrInvalidItem)
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "Colgate", catalog.DisplayName("COLGATE"))
	require.Equal(t, "Green Tea", catalog.DisplayName("green tea"))
}

func TestListHandler(t *testing.T) {
	h := catalog.NewHandler(catalog.HandlerConfig{Catalog: catalog.Default(), Currency: "INR"})
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []struct {
			Name      string `json:"name"`
			UnitPrice string `json:"unitPrice"`
			Unit      string `json:"unit"`
		} `json:"data"`
		Currency string `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INR", body.Currency)
	require.Len(t, body.Data, 9)
	require.Equal(t, "Oil", body.Data[3].Name)
	require.Equal(t, "110", body.Data[3].UnitPrice)
	require.Equal(t, "liter", body.Data[3].Unit)
}

func TestItemHandler(t *testing.T) {
	h := catalog.NewHandler(catalog.HandlerConfig{Catalog: catalog.Default(), Currency: "INR"})
	r := chi.NewRouter()
	r.Get("/api/v1/catalog/{item}", h.Item)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/COLGATE", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"key":"colgate","name":"Colgate","unitPrice":"85","unit":"each"},"currency":"INR"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/gold", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "ITEM_NOT_FOUND")

	rec = httptest.NewRecorder()
	catalog.NewHandler(catalog.HandlerConfig{}).List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
