// Package receipt renders a settled cart as a printable HTML receipt.
package receipt

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"pantrypos/internal/inventory"
)

// Page renders a complete HTML document for settlement.
func Page(shopName string, settlement inventory.Settlement) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>Receipt</title>")
		b.WriteString("<style>body{font-family:monospace;max-width:32em;margin:1em auto}table{width:100%;border-collapse:collapse}td.num{text-align:right}.failed{color:#a00}</style>")
		b.WriteString("</head><body>")
		if err := writeChunk(w, &b); err != nil {
			return err
		}
		if err := Body(shopName, settlement).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// Body renders the receipt fragment without the surrounding document.
func Body(shopName string, settlement inventory.Settlement) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, "<section class=\"receipt\" data-outcome=\"%s\">", templ.EscapeString(string(settlement.Outcome())))
		fmt.Fprintf(&b, "<h1>%s</h1>", templ.EscapeString(shopName))
		fmt.Fprintf(&b, "<p class=\"settled-at\">%s</p>", templ.EscapeString(settlement.SettledAt.Format("2006-01-02 15:04")))

		b.WriteString("<table><thead><tr><th>Item</th><th>Qty</th><th>Price</th><th>Total</th></tr></thead><tbody>")
		for _, line := range settlement.Lines {
			if !line.Succeeded() {
				continue
			}
			fmt.Fprintf(&b, "<tr><td>%s</td><td class=\"num\">%d</td><td class=\"num\">%s</td><td class=\"num\">%s</td></tr>",
				templ.EscapeString(itemName(line)), line.Quantity, money(line.UnitPriceInclusive), money(line.TotalInclusive))
		}
		b.WriteString("</tbody></table>")

		fmt.Fprintf(&b, "<p class=\"subtotal\">Subtotal (ex VAT) <span>%s</span></p>", money(settlement.TotalExclusive))
		fmt.Fprintf(&b, "<p class=\"vat\">VAT %s%% <span>%s</span></p>", templ.EscapeString(settlement.VATRate.Mul(decimal.NewFromInt(100)).String()), money(settlement.TotalVAT))
		fmt.Fprintf(&b, "<p class=\"total\"><strong>Total <span>%s</span></strong></p>", money(settlement.TotalInclusive))

		if len(settlement.Failures) > 0 {
			b.WriteString("<ul class=\"failed\">")
			for _, failure := range settlement.Failures {
				fmt.Fprintf(&b, "<li>Line %d (%s) not sold: %s</li>", failure.Index+1, templ.EscapeString(failure.ProductID), templ.EscapeString(failure.Reason))
			}
			b.WriteString("</ul>")
		}
		b.WriteString("</section>")
		return writeChunk(w, &b)
	})
}

func itemName(line inventory.LineResult) string {
	if line.ProductName != "" {
		return line.ProductName
	}
	return line.ProductID
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func writeChunk(w io.Writer, b *strings.Builder) error {
	_, err := io.WriteString(w, b.String())
	b.Reset()
	return err
}
