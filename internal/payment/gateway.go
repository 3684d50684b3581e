package payment

import (
	"context"
	"errors"
	"net/http"
)

// EventCheckoutSessionCompleted is the only provider event type this pipeline
// materializes orders from; everything else is acknowledged and ignored.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// ProviderStripe keys journal rows for the Stripe gateway.
const ProviderStripe = "stripe"

var (
	ErrGateway          = errors.New("payment gateway error")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Gateway is the capability set the checkout and reconciliation paths need
// from the payment provider. It is injected so handlers and services can be
// tested against a double instead of a live provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSessionHandle, error)
	ListLineItems(ctx context.Context, sessionID string) ([]SessionLineItem, error)
	GetProduct(ctx context.Context, productRef string) (*SessionProduct, error)
	VerifyWebhook(r *http.Request) (*WebhookEvent, error)
}
