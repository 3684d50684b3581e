package cart

import "errors"

var (
	// -- Authentication/Authorization --
	ErrUserNotAuthenticated = errors.New("user not authenticated")

	// -- Resource State --
	ErrCartEmpty = errors.New("cart is empty")

	// -- Database & Operation Failures --
	ErrFailedGetCartRows = errors.New("failed to get cart rows")
	ErrFailedClearCart   = errors.New("failed to clear cart")
)
