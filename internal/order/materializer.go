package order

import (
	"time"

	"github.com/google/uuid"
)

// NewOrderID returns a fresh order identifier, unique per line.
func NewOrderID() string {
	return "ORD-" + uuid.New().String()
}

// Materialize turns priced lines into persistable orders, one order per line,
// all sharing the batch's payment descriptor and delivery address. Lines
// without a product identity cannot become orders; they are returned as
// dropped so the caller can report them. Materialize never touches storage.
func Materialize(lines []PricedLine, batch BatchContext) (orders []Order, dropped []PricedLine) {
	now := time.Now()
	for _, line := range lines {
		if line.ProductID == "" {
			dropped = append(dropped, line)
			continue
		}
		orders = append(orders, Order{
			OrderID:         NewOrderID(),
			UserID:          batch.UserID,
			ProductID:       line.ProductID,
			ProductName:     line.Name,
			ProductImage:    line.Image,
			PaymentID:       batch.PaymentID,
			PaymentStatus:   batch.PaymentStatus,
			DeliveryAddress: batch.AddressID,
			Subtotal:        line.Subtotal,
			Total:           line.Total,
			CreatedAt:       now,
		})
	}
	return orders, dropped
}
