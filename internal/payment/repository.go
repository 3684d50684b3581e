package payment

import (
	"context"
	"database/sql"
	"encoding/json"
)

// Repository journals every received webhook event. The unique
// (provider, event_id) constraint is the event-level half of the replay
// protection; the order-batch half lives in the order repository.
type Repository interface {
	// SaveWebhookEvent upserts the journal row for a delivery and reports
	// whether a prior delivery of this event already completed. A replay of
	// an event whose first attempt failed is NOT already processed; the
	// provider retries under the same event id and that retry must run.
	SaveWebhookEvent(
		ctx context.Context,
		provider string,
		eventID string,
		eventType string,
		sessionID string,
		payload json.RawMessage,
	) (webhookID int64, alreadyProcessed bool, err error)

	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveWebhookEvent(
	ctx context.Context,
	provider string,
	eventID string,
	eventType string,
	sessionID string,
	payload json.RawMessage,
) (int64, bool, error) {

	// The no-op DO UPDATE makes the conflicting row visible to RETURNING, so
	// a replay yields the existing row id plus its completion state instead
	// of nothing. Only a completed prior delivery short-circuits the caller;
	// a failed one is handed back for another attempt.
	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		event_type,
		session_id,
		payload
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (provider, event_id)
	DO UPDATE SET event_id = EXCLUDED.event_id
	RETURNING id, processed_at IS NOT NULL;
	`

	var (
		id        int64
		processed bool
	)
	err := r.db.QueryRowContext(
		ctx,
		q,
		provider,
		eventID,
		eventType,
		sessionID,
		payload,
	).Scan(&id, &processed)
	if err != nil {
		return 0, false, err
	}

	return id, processed, nil
}

func (r *repository) MarkWebhookProcessed(
	ctx context.Context,
	webhookID int64,
) error {

	// Also clears the error left by an earlier failed attempt of the same
	// event once a retry succeeds.
	const q = `
	UPDATE payment_webhooks
	SET processed_at = now(),
	    process_error = NULL
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(
	ctx context.Context,
	webhookID int64,
	reason string,
) error {

	const q = `
	UPDATE payment_webhooks
	SET process_error = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID, reason)
	return err
}
