package cart

import (
	"time"

	"freshbasket-be/internal/product"
)

// CartItem is one line of a user's cart, joined with the catalog fields both
// fulfillment paths price against.
type CartItem struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`

	Product product.Product `json:"product"`
}
