package webhook

import (
	"net/http"

	"freshbasket-be/internal/logger"
	"freshbasket-be/internal/order"
	"freshbasket-be/internal/payment"

	"go.uber.org/zap"
)

// Handler reconciles provider webhook deliveries into orders. Every outcome
// maps to a status code the provider understands: 2xx acknowledges and stops
// redelivery, 4xx rejects bad input, 5xx asks for another delivery.
type Handler struct {
	OrderSvc order.Service
	Gateway  payment.Gateway
	Repo     payment.Repository
}

func NewWebhookHandler(orderSvc order.Service, gateway payment.Gateway, repo payment.Repository) *Handler {
	return &Handler{
		OrderSvc: orderSvc,
		Gateway:  gateway,
		Repo:     repo,
	}
}

func (h *Handler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("handler", "StripeWebhook"))

	// Step 1. Verify the provider signature before touching the payload
	event, err := h.Gateway.VerifyWebhook(r)
	if err != nil {
		log.Warn("webhook signature verification failed", zap.Error(err))
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	log = log.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
	)

	// Step 2. Journal the event. Only a delivery whose earlier attempt
	// completed is acknowledged here; a retry of a failed attempt carries
	// the same event id and must run the pipeline again.
	sessionID := ""
	if event.Session != nil {
		sessionID = event.Session.ID
	}

	webhookID, alreadyProcessed, err := h.Repo.SaveWebhookEvent(
		ctx, payment.ProviderStripe, event.ID, event.Type, sessionID, event.Raw,
	)
	if err != nil {
		log.Error("failed to journal webhook event", zap.Error(err))
		http.Error(w, "failed to record event", http.StatusInternalServerError)
		return
	}
	if alreadyProcessed {
		log.Info("event already processed, acknowledging replay")
		w.WriteHeader(http.StatusOK)
		return
	}

	// Step 3. Only completed checkout sessions produce orders; everything
	// else is journaled and acknowledged untouched.
	if event.Type != payment.EventCheckoutSessionCompleted {
		log.Debug("ignoring unhandled event type")
		if err := h.Repo.MarkWebhookProcessed(ctx, webhookID); err != nil {
			log.Error("failed to mark webhook processed", zap.Error(err))
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	if event.Session == nil {
		log.Error("completed event carries no session payload")
		if err := h.Repo.MarkWebhookFailed(ctx, webhookID, "missing session payload"); err != nil {
			log.Error("failed to mark webhook failed", zap.Error(err))
		}
		http.Error(w, "malformed event payload", http.StatusBadRequest)
		return
	}

	// Step 4. Reconcile the session into orders. Any failure leaves the
	// cart untouched and returns 5xx so the provider delivers again.
	result, err := h.OrderSvc.ReconcileSession(ctx, *event.Session)
	if err != nil {
		log.Error("failed to reconcile session", zap.Error(err))
		if markErr := h.Repo.MarkWebhookFailed(ctx, webhookID, err.Error()); markErr != nil {
			log.Error("failed to mark webhook failed", zap.Error(markErr))
		}
		http.Error(w, "failed to process event", http.StatusInternalServerError)
		return
	}

	// Step 5. Acknowledge
	if err := h.Repo.MarkWebhookProcessed(ctx, webhookID); err != nil {
		log.Error("failed to mark webhook processed", zap.Error(err))
	}

	log.Info("webhook processed",
		zap.Int("orders", len(result.Orders)),
		zap.Int("dropped", result.Dropped),
		zap.Bool("already_processed", result.AlreadyProcessed),
	)

	w.WriteHeader(http.StatusOK)
}
