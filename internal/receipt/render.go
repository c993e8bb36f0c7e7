// Package receipt renders printable bills and delivers them off the request path.
package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/cart"
)

const dateLayout = "2006-01-02 15:04:05"

// Renderer formats invoices as plain-text bills.
type Renderer struct {
	StoreName string
	Location  string
	Symbol    string
}

func (r Renderer) symbol() string {
	if r.Symbol == "" {
		return "Rs"
	}
	return r.Symbol
}

// Render returns the bill for inv.
func (r Renderer) Render(inv cart.Invoice) string {
	var b strings.Builder
	rule := strings.Repeat("=", 40)

	b.WriteString(rule + "\n")
	b.WriteString(center("INVOICE", len(rule)) + "\n")
	if r.StoreName != "" {
		b.WriteString(center(r.StoreName, len(rule)) + "\n")
	}
	if r.Location != "" {
		b.WriteString(center(r.Location, len(rule)) + "\n")
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Customer: %s\n", inv.CustomerName)
	fmt.Fprintf(&b, "Date: %s\n", inv.GeneratedAt.Format(dateLayout))
	fmt.Fprintf(&b, "Invoice: %s\n\n", inv.Number)

	var table bytes.Buffer
	tw := tabwriter.NewWriter(&table, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "S.No\tItems\tQuantity\tUnit Price\tTotal Price")
	for i, it := range inv.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s %s\t%s %s\n",
			i+1, it.Name, it.Quantity, r.symbol(), it.UnitPrice.String(), r.symbol(), it.LineTotal.String())
	}
	_ = tw.Flush()
	b.Write(table.Bytes())

	b.WriteString(strings.Repeat("-", len(rule)) + "\n")
	fmt.Fprintf(&b, "Total Amount: %s %s\n", r.symbol(), inv.Subtotal.String())
	fmt.Fprintf(&b, "GST (%s%%): %s %s\n", RateLabel(inv.TaxRateBps), r.symbol(), inv.TaxAmount.StringFixed(2))
	fmt.Fprintf(&b, "Final Amount: %s %s\n", r.symbol(), inv.GrandTotal.StringFixed(2))
	b.WriteString(rule + "\n")
	b.WriteString("Thanks for visiting!\n")
	return b.String()
}

// RateLabel prints basis points as a percentage, e.g. 500 -> "5", 1250 -> "12.5".
func RateLabel(bps int) string {
	return decimal.New(int64(bps), -2).String()
}

func center(s string, width int) string {
	pad := (width - len(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
