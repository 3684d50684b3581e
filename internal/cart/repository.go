package cart

import (
	"context"
	"database/sql"
	"fmt"

	"freshbasket-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetCartItems(ctx context.Context, userID uint) ([]CartItem, error)
	ClearCart(ctx context.Context, userID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetCartItems reads the user's cart lines together with the catalog fields
// needed for pricing and the frozen order snapshot.
func (r *repository) GetCartItems(
	ctx context.Context,
	userID uint,
) ([]CartItem, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Cart"),
		zap.String("method", "GetCartItems"),
		zap.Uint("user_id", userID),
	)

	const q = `
		SELECT
			c.id,
			c.user_id,
			c.quantity,
			c.created_at,

			p.id,
			p.name,
			p.image,
			p.price,
			p.discount
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetCartRows, err)
	}
	defer rows.Close()

	var items []CartItem

	for rows.Next() {
		var item CartItem
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Quantity,
			&item.CreatedAt,

			&item.Product.ID,
			&item.Product.Name,
			pq.Array(&item.Product.Image),
			&item.Product.Price,
			&item.Product.Discount,
		); err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, err
	}

	return items, nil
}

// ClearCart empties both cart representations for the user in one transaction:
// the line-item rows and the denormalized shopping_cart pointer on the user
// record. Clearing an already-empty cart is a no-op, so the operation is safe
// to run again after a webhook redelivery.
func (r *repository) ClearCart(ctx context.Context, userID uint) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Cart"),
		zap.String("method", "ClearCart"),
		zap.Uint("user_id", userID),
	)

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

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM carts
		WHERE user_id = $1
	`, userID); err != nil {
		log.Error("failed to delete cart items", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrFailedClearCart, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users
		SET shopping_cart = '[]'::jsonb
		WHERE id = $1
	`, userID); err != nil {
		log.Error("failed to reset shopping cart pointer", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrFailedClearCart, err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit clear cart transaction", zap.Error(err))
		return err
	}

	committed = true
	log.Info("cart cleared")

	return nil
}
