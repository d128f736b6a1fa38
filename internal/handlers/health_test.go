package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"pantrypos/models"
)

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	Health(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}

	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("expected status ok, got %q", resp.Status)
	}
	if resp.Time.IsZero() {
		t.Fatal("expected response time to be populated")
	}
}

func TestHealthReportsStaleEconomics(t *testing.T) {
	svc, _ := withTestService(t)
	if _, err := svc.AddProduct(context.Background(), models.Product{Name: "Bun", SellingPrice: decimal.NewFromInt(3), Active: true}); err != nil {
		t.Fatalf("AddProduct() error = %v", err)
	}

	w := serve(nil, Health, http.MethodGet, "/healthz", "")
	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Economics == nil || !resp.Economics.Stale {
		t.Fatalf("expected stale economics after a catalog change, got %+v", resp.Economics)
	}
}
