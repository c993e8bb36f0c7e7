package catalog

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// ErrInvalidItem is returned when a catalog entry cannot be accepted.
var ErrInvalidItem = errors.New("invalid catalog item")

// Item is a purchasable product with its unit price.
type Item struct {
	Key       string        `json:"key"`
	Name      string        `json:"name"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Unit      string        `json:"unit"`
}

// Catalog is an immutable price list keyed by normalized item identifier.
// It is safe for concurrent reads.
type Catalog struct {
	items []Item
	index map[string]int
}

// New builds a catalog from the given entries, preserving their order.
func New(entries []Item) (*Catalog, error) {
	c := &Catalog{
		items: make([]Item, 0, len(entries)),
		index: make(map[string]int, len(entries)),
	}
	for _, entry := range entries {
		key := Normalize(entry.Key)
		if key == "" {
			return nil, fmt.Errorf("empty key: %w", ErrInvalidItem)
		}
		if !entry.UnitPrice.IsPositive() {
			return nil, fmt.Errorf("%s: price must be positive: %w", key, ErrInvalidItem)
		}
		if _, dup := c.index[key]; dup {
			return nil, fmt.Errorf("%s: duplicate key: %w", key, ErrInvalidItem)
		}
		entry.Key = key
		if strings.TrimSpace(entry.Name) == "" {
			entry.Name = DisplayName(key)
		}
		if strings.TrimSpace(entry.Unit) == "" {
			entry.Unit = "each"
		}
		c.index[key] = len(c.items)
		c.items = append(c.items, entry)
	}
	return c, nil
}

// Default returns the supermarket price list.
func Default() *Catalog {
	c, err := New([]Item{
		{Key: "rice", UnitPrice: pricing.FromInt(50), Unit: "kg"},
		{Key: "sugar", UnitPrice: pricing.FromInt(30), Unit: "kg"},
		{Key: "salt", UnitPrice: pricing.FromInt(20), Unit: "kg"},
		{Key: "oil", UnitPrice: pricing.FromInt(110), Unit: "liter"},
		{Key: "paneer", UnitPrice: pricing.FromInt(400), Unit: "kg"},
		{Key: "maggi", UnitPrice: pricing.FromInt(80), Unit: "each"},
		{Key: "boost", UnitPrice: pricing.FromInt(90), Unit: "each"},
		{Key: "colgate", UnitPrice: pricing.FromInt(85), Unit: "each"},
		{Key: "soap", UnitPrice: pricing.FromInt(20), Unit: "each"},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup resolves a raw item key after normalization.
func (c *Catalog) Lookup(key string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	i, ok := c.index[Normalize(key)]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// Items returns the listing in display order.
func (c *Catalog) Items() []Item {
	if c == nil {
		return nil
	}
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Normalize trims and lowercases an item key.
func Normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// DisplayName title-cases a normalized key, e.g. "paneer" -> "Paneer".
func DisplayName(key string) string {
	return cases.Title(language.Und).String(Normalize(key))
}
