package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"freshbasket-be/internal/logger"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"
)

// webhook payloads are small; anything larger is not a provider event
const maxWebhookBody = 1 << 16

type stripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway builds the Stripe-backed Gateway. The client is constructed
// here rather than taken from the package-level stripe singleton so tests can
// swap in a fake backend.
func NewStripeGateway(apiKey, webhookSecret string) Gateway {
	if apiKey == "" {
		logger.L().Warn("Stripe API key is empty")
	}

	return &stripeGateway{
		api:           client.New(apiKey, nil),
		webhookSecret: webhookSecret,
	}
}

func newStripeGatewayWithBackend(apiKey, webhookSecret string, backend stripe.Backend) *stripeGateway {
	return &stripeGateway{
		api: client.New(apiKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
		webhookSecret: webhookSecret,
	}
}

func (g *stripeGateway) CreateCheckoutSession(
	ctx context.Context,
	req CheckoutSessionRequest,
) (*CheckoutSessionHandle, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("gateway", "stripe"),
		zap.Uint("user_id", req.UserID),
		zap.Int("item_count", len(req.Items)),
	)

	params := &stripe.CheckoutSessionParams{
		SubmitType:         stripe.String(string(stripe.CheckoutSessionSubmitTypePay)),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("userId", fmt.Sprint(req.UserID))
	params.AddMetadata("addressId", req.AddressID)

	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			AdjustableQuantity: &stripe.CheckoutSessionLineItemAdjustableQuantityParams{
				Enabled: stripe.Bool(true),
				Minimum: stripe.Int64(1),
			},
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyINR)),
				// Minor-unit conversion happens at submission, nowhere earlier.
				UnitAmount: stripe.Int64(item.UnitPrice * 100),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:   stripe.String(item.Name),
					Images: stripe.StringSlice(item.Images),
					// The webhook path has no database join back to the cart;
					// this metadata is its only route to the internal product.
					Metadata: map[string]string{"productId": item.ProductID},
				},
			},
		})
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		log.Error("failed to create checkout session", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	log.Info("checkout session created", zap.String("session_id", sess.ID))

	return &CheckoutSessionHandle{SessionID: sess.ID, URL: sess.URL}, nil
}

func (g *stripeGateway) ListLineItems(
	ctx context.Context,
	sessionID string,
) ([]SessionLineItem, error) {

	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx

	var items []SessionLineItem

	iter := g.api.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()
		item := SessionLineItem{
			AmountTotal: li.AmountTotal,
			Quantity:    li.Quantity,
		}
		if li.Price != nil && li.Price.Product != nil {
			item.ProductRef = li.Price.Product.ID
		}
		items = append(items, item)
	}
	if err := iter.Err(); err != nil {
		logger.FromCtx(ctx).Error("failed to list session line items",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	return items, nil
}

func (g *stripeGateway) GetProduct(
	ctx context.Context,
	productRef string,
) (*SessionProduct, error) {

	params := &stripe.ProductParams{}
	params.Context = ctx

	p, err := g.api.Products.Get(productRef, params)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to retrieve product",
			zap.String("product_ref", productRef),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	return &SessionProduct{
		ProductRef: p.ID,
		ProductID:  p.Metadata["productId"],
		Name:       p.Name,
		Images:     p.Images,
	}, nil
}

func (g *stripeGateway) VerifyWebhook(r *http.Request) (*WebhookEvent, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook body: %w", err)
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		r.Header.Get("Stripe-Signature"),
		g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	ev := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
		Raw:  event.Data.Raw,
	}

	if ev.Type == EventCheckoutSessionCompleted {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to decode session payload: %w", err)
		}

		cs := &CompletedSession{
			ID:            sess.ID,
			UserID:        sess.Metadata["userId"],
			AddressID:     sess.Metadata["addressId"],
			PaymentStatus: string(sess.PaymentStatus),
		}
		if sess.PaymentIntent != nil {
			cs.PaymentIntentID = sess.PaymentIntent.ID
		}
		ev.Session = cs
	}

	return ev, nil
}
