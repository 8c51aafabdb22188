package domain

// CartItem is a product held in the cart together with its quantity.
// Identity is the product ID; the cart never holds two items with the same ID.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}
