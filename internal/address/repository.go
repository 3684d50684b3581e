package address

import (
	"context"
	"database/sql"
	"errors"

	"freshbasket-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrAddressNotFound = errors.New("address not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Address, error)
	GetUserAddress(ctx context.Context, addressID uuid.UUID, userID uint) (*Address, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*Address, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "GetByID"),
		zap.String("address_id", id.String()),
	)

	const q = `
		SELECT id, user_id, address_line, city, state, pincode, country, mobile
		FROM addresses
		WHERE id = $1
		LIMIT 1
	`

	var a Address
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.UserID,
		&a.AddressLine, &a.City, &a.State, &a.Pincode, &a.Country, &a.Mobile,
	)

	if err == sql.ErrNoRows {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}

	return &a, nil
}

// GetUserAddress resolves an address only when it belongs to the given user.
func (r *repository) GetUserAddress(
	ctx context.Context,
	addressID uuid.UUID,
	userID uint,
) (*Address, error) {

	const q = `
		SELECT id, user_id, address_line, city, state, pincode, country, mobile
		FROM addresses
		WHERE id = $1 AND user_id = $2
	`

	var a Address
	err := r.db.QueryRowContext(ctx, q, addressID, userID).Scan(
		&a.ID, &a.UserID,
		&a.AddressLine, &a.City, &a.State, &a.Pincode, &a.Country, &a.Mobile,
	)

	if err == sql.ErrNoRows {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}

	return &a, nil
}
