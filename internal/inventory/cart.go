package inventory

import "strings"

// CartLine is one product and quantity awaiting settlement.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is an ordered list of lines. It is a value: every method returns a new
// Cart and leaves the receiver untouched, so callers only ever hold a reference
// to the cart they last received.
//
// Add and NewCart merge repeated products into one line, so the merged
// quantity settles or fails as a whole. A Cart built from a literal keeps its
// lines as given and Settle treats each of them independently.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// NewCart builds a cart from lines, merging repeated products.
func NewCart(lines ...CartLine) Cart {
	cart := Cart{}
	for _, line := range lines {
		cart = cart.Add(line.ProductID, line.Quantity)
	}
	return cart
}

// Add appends a line, or grows the existing line for the same product.
func (c Cart) Add(productID string, quantity int) Cart {
	productID = strings.TrimSpace(productID)
	lines := c.clone()
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity += quantity
			return Cart{Lines: lines}
		}
	}
	return Cart{Lines: append(lines, CartLine{ProductID: productID, Quantity: quantity})}
}

// SetQuantity replaces the quantity of productID; zero or less removes the line.
func (c Cart) SetQuantity(productID string, quantity int) Cart {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	lines := c.clone()
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = quantity
			return Cart{Lines: lines}
		}
	}
	return Cart{Lines: append(lines, CartLine{ProductID: productID, Quantity: quantity})}
}

// Remove drops the line for productID.
func (c Cart) Remove(productID string) Cart {
	lines := make([]CartLine, 0, len(c.Lines))
	for _, line := range c.Lines {
		if line.ProductID != productID {
			lines = append(lines, line)
		}
	}
	return Cart{Lines: lines}
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Units returns the total number of items in the cart.
func (c Cart) Units() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

func (c Cart) clone() []CartLine {
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return lines
}
