package pricing

import "github.com/shopspring/decimal"

// Money represents a monetary value in major currency units.
type Money = decimal.Decimal

// DefaultTaxBps is the GST rate applied at billing time (5%).
const DefaultTaxBps = 500

const scale = 2

var bpsDivisor = decimal.NewFromInt(10000)

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money
	Tax      Money
	Total    Money
}

// Zero returns a zero amount.
func Zero() Money {
	return decimal.Zero
}

// FromInt returns a whole-unit amount.
func FromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Parse reads a decimal amount such as "110" or "10.50".
func Parse(value string) (Money, error) {
	return decimal.NewFromString(value)
}

// LineTotal multiplies the unit price by the quantity.
func LineTotal(qty int, unit Money) Money {
	if qty <= 0 {
		return decimal.Zero
	}
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// TaxOn returns the tax for amount at the given basis points rounded to cents.
func TaxOn(amount Money, taxBps int) Money {
	if taxBps <= 0 || !amount.IsPositive() {
		return decimal.Zero.Round(scale)
	}
	return amount.Mul(decimal.NewFromInt(int64(taxBps))).Div(bpsDivisor).Round(scale)
}

// Compute calculates invoice totals for the provided line items.
func Compute(items []Item, taxBps int) Summary {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(LineTotal(it.Qty, it.UnitPrice))
	}
	tax := TaxOn(subtotal, taxBps)
	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax).Round(scale),
	}
}
