package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	applog "pantrypos/internal/log"
	"pantrypos/models"
)

type ingredientRequest struct {
	ID           string          `json:"id" validate:"omitempty,max=64"`
	Name         string          `json:"name" validate:"required,max=120"`
	Category     string          `json:"category" validate:"max=60"`
	Unit         string          `json:"unit" validate:"required,max=16"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	Notes        string          `json:"notes"`
}

func (req ingredientRequest) model() models.Ingredient {
	return models.Ingredient{
		ID:           req.ID,
		Name:         req.Name,
		Category:     req.Category,
		Unit:         req.Unit,
		CostPerUnit:  req.CostPerUnit,
		CurrentStock: req.CurrentStock,
		MinimumStock: req.MinimumStock,
		Notes:        req.Notes,
	}
}

type stockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes" validate:"max=500"`
}

// IngredientResource serves /api/ingredients, /api/ingredients/{id} and
// /api/ingredients/{id}/stock.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	if !serviceAvailable(w, r) {
		return
	}

	segments := splitPath(r.URL.Path, "/api/ingredients")
	switch len(segments) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r)
		case http.MethodPost:
			createIngredient(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case 1:
		id := segments[0]
		switch r.Method {
		case http.MethodGet:
			showIngredient(w, r, id)
		case http.MethodPut:
			updateIngredient(w, r, id)
		case http.MethodDelete:
			deleteIngredient(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case 2:
		if segments[1] != "stock" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		addStock(w, r, segments[0])
	default:
		http.NotFound(w, r)
	}
}

func listIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := service.ListIngredients(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if ingredients == nil {
		ingredients = []models.Ingredient{}
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func showIngredient(w http.ResponseWriter, r *http.Request, id string) {
	ingredient, err := service.GetIngredient(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

func createIngredient(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ingredient, err := service.AddIngredient(r.Context(), req.model())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	applog.Info(r.Context(), "ingredient created", "ingredient", ingredient.ID)
	writeJSON(w, http.StatusCreated, ingredient)
}

func updateIngredient(w http.ResponseWriter, r *http.Request, id string) {
	var req ingredientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input := req.model()
	input.ID = id
	ingredient, err := service.UpdateIngredient(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

func deleteIngredient(w http.ResponseWriter, r *http.Request, id string) {
	if err := service.DeleteIngredient(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	applog.Info(r.Context(), "ingredient deleted", "ingredient", id)
	w.WriteHeader(http.StatusNoContent)
}

func addStock(w http.ResponseWriter, r *http.Request, id string) {
	var req stockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ingredient, err := service.AddInventoryStock(r.Context(), id, req.Quantity, req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

// InventoryStatus reports the stock classification of every ingredient.
func InventoryStatus(w http.ResponseWriter, r *http.Request) {
	if !serviceAvailable(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rows, err := service.GetInventoryStatus(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
