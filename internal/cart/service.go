package cart

import (
	"context"
)

// Service defines the cart reads and the post-commit clear the fulfillment
// paths depend on. Adding and removing items is owned by the cart API, not by
// this pipeline.
type Service interface {
	Snapshot(ctx context.Context, userID uint) ([]CartItem, error)
	Clear(ctx context.Context, userID uint) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Snapshot returns the user's current cart lines with product pricing fields.
func (s *service) Snapshot(ctx context.Context, userID uint) ([]CartItem, error) {
	if userID == 0 {
		return nil, ErrUserNotAuthenticated
	}

	return s.repo.GetCartItems(ctx, userID)
}

// Clear removes fulfilled items from both cart representations. Must only be
// invoked after the order batch is durably persisted.
func (s *service) Clear(ctx context.Context, userID uint) error {
	if userID == 0 {
		return ErrUserNotAuthenticated
	}

	return s.repo.ClearCart(ctx, userID)
}
