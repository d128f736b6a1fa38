package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	applog "pantrypos/internal/log"
	"pantrypos/models"
)

type saleRequest struct {
	ProductID string           `json:"product_id" validate:"required,max=64"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type deductRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// SalesResource serves /api/sales and /api/sales/deduct.
func SalesResource(w http.ResponseWriter, r *http.Request) {
	if !serviceAvailable(w, r) {
		return
	}

	segments := splitPath(r.URL.Path, "/api/sales")
	switch {
	case len(segments) == 0 && r.Method == http.MethodGet:
		listSales(w, r)
	case len(segments) == 0 && r.Method == http.MethodPost:
		createSale(w, r)
	case len(segments) == 1 && segments[0] == "deduct" && r.Method == http.MethodPost:
		deductSale(w, r)
	case len(segments) == 0, len(segments) == 1 && segments[0] == "deduct":
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

func listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := service.ListSales(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	writeJSON(w, http.StatusOK, sales)
}

// createSale records a sale without touching stock. Without an explicit unit
// price the product's selling price is taken net of VAT.
func createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var unitPrice decimal.Decimal
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	} else {
		product, err := service.GetProduct(r.Context(), req.ProductID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		unitPrice = service.Pricing().Exclusive(product.SellingPrice)
	}

	sale, err := service.AddSale(r.Context(), req.ProductID, req.Quantity, unitPrice)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	applog.Info(r.Context(), "sale recorded", "sale", sale.ID, "product", sale.ProductID, "quantity", sale.Quantity)
	writeJSON(w, http.StatusCreated, sale)
}

func deductSale(w http.ResponseWriter, r *http.Request) {
	var req deductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	deduction, err := service.UpdateInventoryFromSale(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   deduction.Message(),
		"deduction": deduction,
	})
}
