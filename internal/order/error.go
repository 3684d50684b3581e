package order

import "errors"

var (
	ErrUserNotAuthenticated = errors.New("user not authenticated")
	ErrEmptyCart            = errors.New("cart has no items")
	ErrMissingAddress       = errors.New("delivery address is required")
	ErrInvalidAddress       = errors.New("delivery address is invalid")
	ErrInvalidQuantity      = errors.New("item quantity must be positive")
	ErrProductNotFound      = errors.New("product not found")
	ErrNoResolvableItems    = errors.New("no line items resolved to a product")
	ErrFailedCreateOrders   = errors.New("failed to persist orders")
	ErrFailedGetOrders      = errors.New("failed to get orders")
)
