package domain

import "encoding/json"

type Product struct {
	ID       string
	Title    string
	ImageURL string
	Price    Money

	// Extra holds display fields the cart does not interpret. They are
	// written back to snapshots unchanged.
	Extra map[string]json.RawMessage
}

// CartItem is a product in the cart. Quantity is not floored at zero.
type CartItem struct {
	Product
	Quantity int
}

func (i CartItem) Subtotal() Money {
	return i.Price.Mul(i.Quantity)
}
