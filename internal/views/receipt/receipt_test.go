package receipt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pantrypos/internal/inventory"
)

func sampleSettlement() inventory.Settlement {
	return inventory.Settlement{
		Lines: []inventory.LineResult{
			{Index: 0, ProductID: "cake", ProductName: "Cake <Chocolate>", Quantity: 2, State: inventory.LineDeducted, UnitPriceInclusive: decimal.RequireFromString("50"), TotalInclusive: decimal.RequireFromString("100")},
			{Index: 1, ProductID: "roll", Quantity: 1, State: inventory.LineFailed},
		},
		Succeeded:      1,
		Failures:       []inventory.LineFailure{{Index: 1, ProductID: "roll", Stage: inventory.LinePriced, Reason: "stock would go negative"}},
		VATRate:        decimal.RequireFromString("0.12"),
		TotalInclusive: decimal.RequireFromString("100"),
		TotalExclusive: decimal.RequireFromString("89.28"),
		TotalVAT:       decimal.RequireFromString("10.72"),
		SettledAt:      time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestBodyRendersSucceededLinesAndTotals(t *testing.T) {
	var buf bytes.Buffer
	if err := Body("Corner Bakery", sampleSettlement()).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render receipt: %v", err)
	}
	output := buf.String()
	for _, token := range []string{"Corner Bakery", "Cake &lt;Chocolate&gt;", "100.00", "89.28", "10.72", "VAT 12%", "2024-03-01 09:30", "Line 2 (roll) not sold", `data-outcome="partially_succeeded"`} {
		if !strings.Contains(output, token) {
			t.Fatalf("expected output to contain %q: %s", token, output)
		}
	}
	if strings.Contains(output, "<td>roll</td>") {
		t.Fatalf("failed line must not be listed as sold: %s", output)
	}
}

func TestPageWrapsBody(t *testing.T) {
	var buf bytes.Buffer
	if err := Page("Corner Bakery", sampleSettlement()).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render page: %v", err)
	}
	output := buf.String()
	if !strings.HasPrefix(output, "<!DOCTYPE html>") || !strings.HasSuffix(output, "</body></html>") {
		t.Fatalf("expected a full html document: %s", output)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestRenderPropagatesWriteErrors(t *testing.T) {
	if err := Page("Corner Bakery", sampleSettlement()).Render(context.Background(), failingWriter{}); err == nil {
		t.Fatal("expected write error")
	}
}
