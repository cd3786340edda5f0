package domain

import "fmt"

const (
	DefaultColor = "Padrão"
	DefaultSize  = "Único"
)

// Product is what a product card or product page offers to the cart.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Img   string  `json:"img"`
}

// Selection is the color/size picked on the product card.
type Selection struct {
	Color string `json:"color"`
	Size  string `json:"size"`
}

// Normalized fills the storefront defaults for an unpicked color or size.
func (s Selection) Normalized() Selection {
	if s.Color == "" {
		s.Color = DefaultColor
	}
	if s.Size == "" {
		s.Size = DefaultSize
	}
	return s
}

// CartLineItem is one product/color/size selection in the cart.
// JSON names match what the storefront keeps under the cart storage key.
type CartLineItem struct {
	CartItemID string  `json:"cartItemId"`
	ProductID  string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Img        string  `json:"img"`
	Color      string  `json:"color"`
	Size       string  `json:"size"`
	Quantity   int     `json:"quantity"`
}

// CartItemID is productID-color-size.
func CartItemID(productID string, sel Selection) string {
	return fmt.Sprintf("%s-%s-%s", productID, sel.Color, sel.Size)
}
