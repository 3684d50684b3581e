package product

import (
	"context"
	"database/sql"

	"freshbasket-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetByID(ctx context.Context, productID string) (*Product, error)
	GetByIDs(ctx context.Context, productIDs []string) (map[string]*Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(
	ctx context.Context,
	productID string,
) (*Product, error) {

	const q = `
		SELECT id, name, image, price, discount
		FROM products
		WHERE id = $1
	`

	var p Product
	err := r.db.QueryRowContext(ctx, q, productID).
		Scan(&p.ID, &p.Name, pq.Array(&p.Image), &p.Price, &p.Discount)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *repository) GetByIDs(
	ctx context.Context,
	productIDs []string,
) (map[string]*Product, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Product"),
		zap.String("method", "GetByIDs"),
		zap.Int("id_count", len(productIDs)),
	)

	const q = `
		SELECT id, name, image, price, discount
		FROM products
		WHERE id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, q, pq.Array(productIDs))
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	res := make(map[string]*Product, len(productIDs))

	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, pq.Array(&p.Image), &p.Price, &p.Discount); err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		res[p.ID] = &p
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, err
	}

	return res, nil
}
