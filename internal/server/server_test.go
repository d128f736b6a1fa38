package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"pantrypos/internal/handlers"
	"pantrypos/internal/inventory"
	"pantrypos/internal/store/memory"
	"pantrypos/models"
)

func newTestService(t *testing.T) *inventory.Service {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	if err := store.SaveProducts(ctx, []models.Product{{ID: "water", Name: "Water", SellingPrice: decimal.RequireFromString("11.20"), Active: true}}); err != nil {
		t.Fatalf("seed products: %v", err)
	}
	svc, err := inventory.NewService(store, inventory.DefaultConfig())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func TestNewRequiresService(t *testing.T) {
	if _, err := New(Config{Addr: ":8080"}); err == nil {
		t.Fatal("expected error without an inventory service")
	}
}

func TestNewAppliesSessionDefaults(t *testing.T) {
	srv, err := New(Config{Addr: ":8080", Session: SessionConfig{CookieSecure: true}, Service: newTestService(t)})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	t.Cleanup(func() {
		handlers.Configure(nil, nil)
	})

	if srv.httpServer.Addr != ":8080" {
		t.Fatalf("expected server addr :8080, got %q", srv.httpServer.Addr)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{"product_id":"water","quantity":1}`))
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected cart update to succeed, got %d: %s", rr.Code, rr.Body.String())
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie to be set")
	}
	if cookies[0].Name != "pantrypos_session" {
		t.Fatalf("expected default session cookie name, got %q", cookies[0].Name)
	}
	if !cookies[0].Secure || !cookies[0].HttpOnly {
		t.Fatal("expected secure http-only cookie")
	}
}

func TestCartSurvivesAcrossRequests(t *testing.T) {
	srv, err := New(Config{Addr: ":9090", Service: newTestService(t)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		handlers.Configure(nil, nil)
	})
	handler := srv.Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{"product_id":"water","quantity":2}`)))
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/cart/checkout", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected checkout to succeed, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"outcome":"succeeded"`) {
		t.Fatalf("expected succeeded outcome, got %s", rr.Body.String())
	}
}
