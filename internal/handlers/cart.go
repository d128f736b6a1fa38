package handlers

import (
	"net/http"
	"strings"

	"pantrypos/internal/inventory"
	applog "pantrypos/internal/log"
	"pantrypos/internal/views/receipt"
)

const (
	sessionCartKey = "cart"
	receiptTitle   = "Pantry POS"
)

type cartLineRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type cartQuantityRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"min=0"`
}

type cartResponse struct {
	Lines []inventory.CartLine `json:"lines"`
	Units int                  `json:"units"`
}

func newCartResponse(cart inventory.Cart) cartResponse {
	lines := cart.Lines
	if lines == nil {
		lines = []inventory.CartLine{}
	}
	return cartResponse{Lines: lines, Units: cart.Units()}
}

// CartResource serves the session cart at /api/cart.
func CartResource(w http.ResponseWriter, r *http.Request) {
	if sessionManager == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "sessions unavailable")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, newCartResponse(currentCart(r)))
	case http.MethodPost:
		var req cartLineRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		cart := currentCart(r).Add(req.ProductID, req.Quantity)
		storeCart(r, cart)
		applog.Debug(r.Context(), "cart line added", "product", req.ProductID, "quantity", req.Quantity)
		writeJSON(w, http.StatusOK, newCartResponse(cart))
	case http.MethodPut:
		var req cartQuantityRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		cart := currentCart(r).SetQuantity(strings.TrimSpace(req.ProductID), req.Quantity)
		storeCart(r, cart)
		writeJSON(w, http.StatusOK, newCartResponse(cart))
	case http.MethodDelete:
		cart := inventory.Cart{}
		if productID := strings.TrimSpace(r.URL.Query().Get("product_id")); productID != "" {
			cart = currentCart(r).Remove(productID)
		}
		storeCart(r, cart)
		writeJSON(w, http.StatusOK, newCartResponse(cart))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Checkout settles the session cart. Lines that went through are removed from
// the cart; failed lines stay so they can be corrected and retried, except
// lines whose sale was already recorded, which are reported as pending
// deduction.
func Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !serviceAvailable(w, r) {
		return
	}
	if sessionManager == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "sessions unavailable")
		return
	}

	cart := currentCart(r)
	settlement, err := service.Settle(r.Context(), cart)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// A line that failed after its sale was recorded must not be sold again;
	// its stock is settled through /api/sales/deduct instead.
	remaining := inventory.Cart{}
	pending := []inventory.LineFailure{}
	for _, line := range settlement.Lines {
		switch {
		case line.Succeeded():
		case line.FailedAt == inventory.LineRecorded:
			pending = append(pending, inventory.LineFailure{Index: line.Index, ProductID: line.ProductID, Stage: line.FailedAt, Reason: line.Reason})
			applog.Warn(r.Context(), "sale recorded without stock deduction", "product", line.ProductID, "quantity", line.Quantity)
		default:
			remaining = remaining.Add(line.ProductID, line.Quantity)
		}
	}
	storeCart(r, remaining)

	status := http.StatusOK
	if settlement.Outcome() == inventory.OutcomeFailed {
		status = http.StatusUnprocessableEntity
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := receipt.Page(receiptTitle, settlement).Render(r.Context(), w); err != nil {
			applog.Error(r.Context(), "failed to render receipt", "error", err)
		}
		return
	}

	writeJSON(w, status, struct {
		Outcome inventory.Outcome `json:"outcome"`
		inventory.Settlement
		PendingDeduction []inventory.LineFailure `json:"pending_deduction"`
		Cart             cartResponse            `json:"cart"`
	}{
		Outcome:          settlement.Outcome(),
		Settlement:       settlement,
		PendingDeduction: pending,
		Cart:             newCartResponse(remaining),
	})
}

func currentCart(r *http.Request) inventory.Cart {
	cart, ok := sessionManager.Get(r.Context(), sessionCartKey).(inventory.Cart)
	if !ok {
		return inventory.Cart{}
	}
	return cart
}

func storeCart(r *http.Request, cart inventory.Cart) {
	if cart.Empty() {
		sessionManager.Remove(r.Context(), sessionCartKey)
		return
	}
	sessionManager.Put(r.Context(), sessionCartKey, cart)
}

func wantsHTML(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "html") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
