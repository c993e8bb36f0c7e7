package cart

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// State names the lifecycle position of a shopping session.
type State string

const (
	StateNone      State = "NONE"
	StateActive    State = "ACTIVE"
	StateFinalized State = "FINALIZED"
)

// LineItem is one add-to-cart operation. It is never edited in place.
type LineItem struct {
	Key       string        `json:"key"`
	Name      string        `json:"name"`
	Quantity  int           `json:"quantity"`
	UnitPrice pricing.Money `json:"unitPrice"`
	LineTotal pricing.Money `json:"lineTotal"`
}

// Session is the cart of a single customer interaction.
//
// RunningTotal always equals the sum of LineTotal over Items. Once Active is
// false the session only accepts a reset.
type Session struct {
	CustomerName string        `json:"customerName"`
	Items        []LineItem    `json:"items"`
	RunningTotal pricing.Money `json:"runningTotal"`
	Active       bool          `json:"active"`
	StartedAt    time.Time     `json:"startedAt"`
	Invoice      *Invoice      `json:"invoice,omitempty"`
}

// Invoice is the billing snapshot produced when a session is finalized.
type Invoice struct {
	Number       string        `json:"number"`
	CustomerName string        `json:"customerName"`
	Items        []LineItem    `json:"items"`
	Subtotal     pricing.Money `json:"subtotal"`
	TaxAmount    pricing.Money `json:"taxAmount"`
	GrandTotal   pricing.Money `json:"grandTotal"`
	TaxRateBps   int           `json:"taxRateBps"`
	Currency     string        `json:"currency"`
	GeneratedAt  time.Time     `json:"generatedAt"`
}

// Billing carries the tax settings applied at finalization.
type Billing struct {
	TaxBps   int
	Currency string
}

// Start opens a new active session for the named customer.
func Start(name string, now time.Time) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("customer name is required: %w", ErrInvalidInput)
	}
	return &Session{
		CustomerName: name,
		Items:        []LineItem{},
		RunningTotal: pricing.Zero(),
		Active:       true,
		StartedAt:    now,
	}, nil
}

// State reports where the session is in its lifecycle.
func (s *Session) State() State {
	switch {
	case s == nil:
		return StateNone
	case s.Active:
		return StateActive
	default:
		return StateFinalized
	}
}

// AddItem appends a new line for qty units of the catalog item named by key.
// Repeated adds of the same item produce separate lines.
func (s *Session) AddItem(c *catalog.Catalog, key string, qty int) (LineItem, error) {
	if s == nil || !s.Active {
		return LineItem{}, ErrSessionInactive
	}
	if qty <= 0 {
		return LineItem{}, fmt.Errorf("quantity must be greater than 0: %w", ErrInvalidQuantity)
	}
	item, ok := c.Lookup(key)
	if !ok {
		return LineItem{}, fmt.Errorf("%q: %w", catalog.Normalize(key), ErrItemNotFound)
	}
	line := LineItem{
		Key:       item.Key,
		Name:      catalog.DisplayName(item.Key),
		Quantity:  qty,
		UnitPrice: item.UnitPrice,
		LineTotal: pricing.LineTotal(qty, item.UnitPrice),
	}
	s.Items = append(s.Items, line)
	s.RunningTotal = s.RunningTotal.Add(line.LineTotal)
	return line, nil
}

// RemoveItem deletes the line at index; later lines shift down by one.
func (s *Session) RemoveItem(index int) (LineItem, error) {
	if s == nil || !s.Active {
		return LineItem{}, ErrSessionInactive
	}
	if index < 0 || index >= len(s.Items) {
		return LineItem{}, fmt.Errorf("index %d with %d items: %w", index, len(s.Items), ErrIndexOutOfRange)
	}
	removed := s.Items[index]
	items := make([]LineItem, 0, len(s.Items)-1)
	items = append(items, s.Items[:index]...)
	items = append(items, s.Items[index+1:]...)
	s.Items = items
	s.RunningTotal = s.RunningTotal.Sub(removed.LineTotal)
	return removed, nil
}

// Finalize bills the cart and closes the session. The returned invoice is a
// copy; the session keeps its own snapshot for later reads.
func (s *Session) Finalize(b Billing, now time.Time) (Invoice, error) {
	if s == nil || !s.Active {
		return Invoice{}, ErrSessionInactive
	}
	if len(s.Items) == 0 {
		return Invoice{}, ErrEmptyCart
	}
	priced := make([]pricing.Item, 0, len(s.Items))
	for _, it := range s.Items {
		priced = append(priced, pricing.Item{Qty: it.Quantity, UnitPrice: it.UnitPrice})
	}
	summary := pricing.Compute(priced, b.TaxBps)
	inv := Invoice{
		Number:       uuid.NewString(),
		CustomerName: s.CustomerName,
		Items:        cloneItems(s.Items),
		Subtotal:     summary.Subtotal,
		TaxAmount:    summary.Tax,
		GrandTotal:   summary.Total,
		TaxRateBps:   b.TaxBps,
		Currency:     b.Currency,
		GeneratedAt:  now,
	}
	s.Active = false
	s.Invoice = &inv
	return inv.Clone(), nil
}

// Total recomputes the sum of line totals.
func (s *Session) Total() pricing.Money {
	total := pricing.Zero()
	if s == nil {
		return total
	}
	for _, it := range s.Items {
		total = total.Add(it.LineTotal)
	}
	return total
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Items = cloneItems(s.Items)
	if s.Invoice != nil {
		inv := s.Invoice.Clone()
		out.Invoice = &inv
	}
	return &out
}

// Clone returns a deep copy of the invoice.
func (inv Invoice) Clone() Invoice {
	inv.Items = cloneItems(inv.Items)
	return inv
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
