package payment

import "encoding/json"

// LineItemRequest is one priced cart line submitted to the provider. UnitPrice
// is in whole currency units with the discount already applied; the gateway
// converts to minor units at submission.
type LineItemRequest struct {
	ProductID string
	Name      string
	Images    []string
	UnitPrice int64
	Quantity  int64
}

type CheckoutSessionRequest struct {
	CustomerEmail string
	UserID        uint
	AddressID     string
	Items         []LineItemRequest
	SuccessURL    string
	CancelURL     string
}

// CheckoutSessionHandle is the opaque session the caller redirects to.
type CheckoutSessionHandle struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// SessionLineItem is a provider-side line item of a completed session.
// AmountTotal is the provider-reported charged amount in minor units.
type SessionLineItem struct {
	ProductRef  string
	AmountTotal int64
	Quantity    int64
}

// SessionProduct is the provider-side product record. ProductID is the
// internal catalog id recovered from the metadata embedded at session
// creation; empty when the metadata is missing or malformed.
type SessionProduct struct {
	ProductRef string
	ProductID  string
	Name       string
	Images     []string
}

// CompletedSession carries the fields of a payment-completed event the
// reconciler acts on.
type CompletedSession struct {
	ID              string
	UserID          string
	AddressID       string
	PaymentIntentID string
	PaymentStatus   string
}

type WebhookEvent struct {
	ID      string
	Type    string
	Session *CompletedSession
	Raw     json.RawMessage
}
