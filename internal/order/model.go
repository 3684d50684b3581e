package order

import (
	"time"

	"freshbasket-be/internal/address"

	"github.com/google/uuid"
)

// Payment status values stamped on orders at creation. Statuses reported by
// the payment provider (e.g. "paid") are stored verbatim on the webhook path.
const (
	PaymentStatusCashOnDelivery = "cash_on_delivery"
	PaymentStatusUnpaid         = "unpaid"
	PaymentStatusPaid           = "paid"
)

// Order is one product line of a checkout. A checkout with N cart lines
// produces N orders sharing one payment descriptor and delivery address.
// The product name and image are frozen at order time so later catalog edits
// do not rewrite history.
type Order struct {
	ID              uint      `json:"-"`
	OrderID         string    `json:"order_id"`
	UserID          uint      `json:"user_id"`
	ProductID       string    `json:"product_id"`
	ProductName     string    `json:"product_name"`
	ProductImage    []string  `json:"product_image"`
	PaymentID       string    `json:"payment_id"`
	PaymentStatus   string    `json:"payment_status"`
	DeliveryAddress uuid.UUID `json:"delivery_address"`
	Subtotal        int64     `json:"subtotal"`
	Total           int64     `json:"total"`
	CreatedAt       time.Time `json:"created_at"`

	// Resolved on history reads
	Address *address.Address `json:"address,omitempty"`
}

// PricedLine is a line item ready for materialization: product identity,
// frozen display fields and final amounts, path-independent.
type PricedLine struct {
	ProductID string
	Name      string
	Image     []string
	Quantity  int64
	Subtotal  int64
	Total     int64
}

// BatchContext is the payment and delivery context shared by every order of
// one checkout.
type BatchContext struct {
	UserID        uint
	AddressID     uuid.UUID
	PaymentID     string
	PaymentStatus string
}
