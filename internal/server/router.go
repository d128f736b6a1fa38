package server

import (
	"context"
	"net/http"

	"pantrypos/internal/handlers"
	applog "pantrypos/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"/healthz", handlers.Health},
		{"/api/ingredients", handlers.IngredientResource},
		{"/api/ingredients/", handlers.IngredientResource},
		{"/api/inventory/status", handlers.InventoryStatus},
		{"/api/products", handlers.ProductResource},
		{"/api/products/", handlers.ProductResource},
		{"/api/sales", handlers.SalesResource},
		{"/api/sales/", handlers.SalesResource},
		{"/api/cart", handlers.CartResource},
		{"/api/cart/checkout", handlers.Checkout},
		{"/api/units", handlers.Units},
	}
	for _, route := range routes {
		mux.HandleFunc(route.pattern, route.handler)
		applog.Debug(context.Background(), "route registered", "path", route.pattern)
	}
	return mux
}
