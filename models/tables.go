package models

// Table names shared by every store backend. Spreadsheet backends use them as
// sheet names.
const (
	TableProducts    = "Products"
	TableIngredients = "Ingredients"
	TableRecipes     = "Recipes"
	TableSales       = "Sales"
)

// Tables lists every table in the order backends create them.
func Tables() []string {
	return []string{TableProducts, TableIngredients, TableRecipes, TableSales}
}

// TableName pins the Recipes table name for gorm.
func (RecipeLine) TableName() string {
	return "recipe_lines"
}
