package order

import (
	"context"
	"database/sql"

	"freshbasket-be/internal/address"
	"freshbasket-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	InsertOrders(ctx context.Context, orders []Order) error
	CountByPaymentID(ctx context.Context, paymentID string) (int, error)
	GetOrdersByUser(ctx context.Context, userID uint) ([]Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// InsertOrders persists one checkout batch atomically. Either every order
// row lands or none do.
func (r *repository) InsertOrders(ctx context.Context, orders []Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "InsertOrders"),
		zap.Int("order_count", len(orders)),
	)

	if len(orders) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	query := `
		INSERT INTO orders (
			order_id, user_id, product_id, product_name, product_image,
			payment_id, payment_status, delivery_address,
			subtotal, total, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`

	for i, o := range orders {
		_, err = tx.ExecContext(ctx, query,
			o.OrderID,
			o.UserID,
			o.ProductID,
			o.ProductName,
			pq.Array(o.ProductImage),
			o.PaymentID,
			o.PaymentStatus,
			o.DeliveryAddress,
			o.Subtotal,
			o.Total,
			o.CreatedAt,
		)
		if err != nil {
			log.Error("failed to insert order row",
				zap.Int("order_index", i),
				zap.String("order_id", o.OrderID),
				zap.Error(err),
			)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit orders transaction", zap.Error(err))
		return err
	}

	committed = true
	log.Info("orders persisted")

	return nil
}

// CountByPaymentID reports how many order rows already carry the given
// payment reference. Non-zero means the checkout was already reconciled.
func (r *repository) CountByPaymentID(ctx context.Context, paymentID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE payment_id = $1
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, paymentID).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *repository) GetOrdersByUser(ctx context.Context, userID uint) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetOrdersByUser"),
		zap.Uint("user_id", userID),
	)

	query := `
		SELECT
			o.id, o.order_id, o.user_id,
			o.product_id, o.product_name, o.product_image,
			o.payment_id, o.payment_status, o.delivery_address,
			o.subtotal, o.total, o.created_at,
			a.id, a.user_id, a.address_line, a.city,
			a.state, a.pincode, a.country, a.mobile
		FROM orders o
		JOIN addresses a ON a.id = o.delivery_address
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		var a address.Address
		if err := rows.Scan(
			&o.ID,
			&o.OrderID,
			&o.UserID,
			&o.ProductID,
			&o.ProductName,
			pq.Array(&o.ProductImage),
			&o.PaymentID,
			&o.PaymentStatus,
			&o.DeliveryAddress,
			&o.Subtotal,
			&o.Total,
			&o.CreatedAt,
			&a.ID,
			&a.UserID,
			&a.AddressLine,
			&a.City,
			&a.State,
			&a.Pincode,
			&a.Country,
			&a.Mobile,
		); err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		o.Address = &a
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	log.Debug("orders fetched", zap.Int("count", len(orders)))

	return orders, nil
}
