package port

import (
	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
)

// Cart is the accessor handed to cart consumers.
type Cart interface {
	Items() []domain.CartItem
	AddToCart(product domain.Product)
	Increment(productID string)
	Decrement(productID string)
}
