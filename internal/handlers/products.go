package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"pantrypos/internal/inventory"
	applog "pantrypos/internal/log"
	"pantrypos/internal/units"
	"pantrypos/models"
)

type productRequest struct {
	ID           string          `json:"id" validate:"omitempty,max=64"`
	Name         string          `json:"name" validate:"required,max=120"`
	Category     string          `json:"category" validate:"max=60"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Active       *bool           `json:"active"`
}

func (req productRequest) model() models.Product {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return models.Product{
		ID:           req.ID,
		Name:         req.Name,
		Category:     req.Category,
		SellingPrice: req.SellingPrice,
		Active:       active,
	}
}

type recipeLineRequest struct {
	IngredientID string          `json:"ingredient_id" validate:"required,max=64"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit" validate:"max=16"`
}

type recipeRequest struct {
	Lines []recipeLineRequest `json:"lines" validate:"dive"`
}

type recipeResponse struct {
	ProductID string                 `json:"product_id"`
	Lines     []inventory.RecipeItem `json:"lines"`
}

// ProductResource serves /api/products and everything below it.
func ProductResource(w http.ResponseWriter, r *http.Request) {
	if !serviceAvailable(w, r) {
		return
	}

	segments := splitPath(r.URL.Path, "/api/products")
	if len(segments) == 2 && segments[0] == "costs" {
		productCosts(w, r, segments[1])
		return
	}

	switch len(segments) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			listProducts(w, r)
		case http.MethodPost:
			createProduct(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case 1:
		id := segments[0]
		switch r.Method {
		case http.MethodGet:
			showProduct(w, r, id)
		case http.MethodPut:
			updateProduct(w, r, id)
		case http.MethodDelete:
			deleteProduct(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case 2:
		id := segments[0]
		switch {
		case segments[1] == "cost" && r.Method == http.MethodGet:
			showProductCost(w, r, id)
		case segments[1] == "recipe" && r.Method == http.MethodGet:
			showRecipe(w, r, id)
		case segments[1] == "recipe" && r.Method == http.MethodPut:
			saveRecipe(w, r, id)
		case segments[1] == "cost" || segments[1] == "recipe":
			w.WriteHeader(http.StatusMethodNotAllowed)
		default:
			http.NotFound(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}

func productCosts(w http.ResponseWriter, r *http.Request, action string) {
	switch {
	case action == "refresh" && r.Method == http.MethodPost:
		report, err := service.UpdateAllProductCosts(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		applog.Info(r.Context(), "product costs refreshed", "products", len(report.Rows))
		writeJSON(w, http.StatusOK, report)
	case action == "status" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, service.EconomicsStatus(r.Context()))
	case action == "refresh" || action == "status":
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

func listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := service.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func showProduct(w http.ResponseWriter, r *http.Request, id string) {
	product, err := service.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	product, err := service.AddProduct(r.Context(), req.model())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	applog.Info(r.Context(), "product created", "product", product.ID)
	writeJSON(w, http.StatusCreated, product)
}

func updateProduct(w http.ResponseWriter, r *http.Request, id string) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input := req.model()
	input.ID = id
	product, err := service.UpdateProduct(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func deleteProduct(w http.ResponseWriter, r *http.Request, id string) {
	if err := service.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	applog.Info(r.Context(), "product deleted", "product", id)
	w.WriteHeader(http.StatusNoContent)
}

func showProductCost(w http.ResponseWriter, r *http.Request, id string) {
	breakdown, err := service.ProductCost(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func showRecipe(w http.ResponseWriter, r *http.Request, id string) {
	items, err := service.Recipe(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipeResponse{ProductID: id, Lines: items})
}

func saveRecipe(w http.ResponseWriter, r *http.Request, id string) {
	var req recipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lines := make([]inventory.RecipeInput, 0, len(req.Lines))
	for i, line := range req.Lines {
		quantity, err := recipeQuantity(r, line)
		if err != nil {
			writeServiceError(w, r, fmt.Errorf("line %d: %w", i+1, err))
			return
		}
		lines = append(lines, inventory.RecipeInput{IngredientID: line.IngredientID, Quantity: quantity})
	}

	if err := service.SaveRecipe(r.Context(), id, lines); err != nil {
		writeServiceError(w, r, err)
		return
	}
	showRecipe(w, r, id)
}

// recipeQuantity converts a submitted quantity into the ingredient's unit when
// the line names a different one.
func recipeQuantity(r *http.Request, line recipeLineRequest) (decimal.Decimal, error) {
	if strings.TrimSpace(line.Unit) == "" {
		return line.Quantity, nil
	}
	ingredient, err := service.GetIngredient(r.Context(), line.IngredientID)
	if err != nil {
		return decimal.Zero, err
	}
	converted, err := units.Convert(line.Quantity, line.Unit, ingredient.Unit)
	if errors.Is(err, units.ErrUnknownUnit) {
		return decimal.Zero, fmt.Errorf("%w: %w", inventory.ErrValidation, err)
	}
	return converted, err
}
