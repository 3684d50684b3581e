package order

import (
	"context"

	"freshbasket-be/internal/address"
	"freshbasket-be/internal/cart"
	"freshbasket-be/internal/logger"
	"freshbasket-be/internal/payment"
	"freshbasket-be/internal/pricing"
	"freshbasket-be/internal/product"
	"freshbasket-be/internal/user"
	"freshbasket-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LineItemInput is a cart line as submitted by the client. Amounts are never
// taken from the client; only identity and quantity are.
type LineItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type CashOnDeliveryInput struct {
	UserID    uint
	AddressID string
	Items     []LineItemInput

	// Client-computed totals, advisory only. Mismatches against the
	// server-side recompute are logged, never trusted.
	Subtotal int64
	Total    int64
}

type CheckoutInput struct {
	UserID    uint
	AddressID string
	Items     []LineItemInput
}

// ReconcileResult reports what a completed-session reconciliation did.
type ReconcileResult struct {
	Orders           []Order
	Dropped          int
	AlreadyProcessed bool
}

type Service interface {
	PlaceCashOnDelivery(ctx context.Context, input CashOnDeliveryInput) ([]Order, error)
	CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*payment.CheckoutSessionHandle, error)
	ReconcileSession(ctx context.Context, sess payment.CompletedSession) (*ReconcileResult, error)
	History(ctx context.Context, userID uint) ([]Order, error)
}

type service struct {
	repo        Repository
	productRepo product.Repository
	addressRepo address.Repository
	userRepo    user.Repository
	cartSvc     cart.Service
	gateway     payment.Gateway
	successURL  string
	cancelURL   string
}

func NewService(
	repo Repository,
	productRepo product.Repository,
	addressRepo address.Repository,
	userRepo user.Repository,
	cartSvc cart.Service,
	gateway payment.Gateway,
	successURL string,
	cancelURL string,
) Service {
	return &service{
		repo:        repo,
		productRepo: productRepo,
		addressRepo: addressRepo,
		userRepo:    userRepo,
		cartSvc:     cartSvc,
		gateway:     gateway,
		successURL:  successURL,
		cancelURL:   cancelURL,
	}
}

// validateBatch checks the parts common to both checkout paths and returns
// the parsed, ownership-checked delivery address.
func (s *service) validateBatch(
	ctx context.Context,
	userID uint,
	addressID string,
	items []LineItemInput,
) (uuid.UUID, error) {

	if userID == 0 {
		return uuid.Nil, ErrUserNotAuthenticated
	}
	if len(items) == 0 {
		return uuid.Nil, ErrEmptyCart
	}
	if addressID == "" {
		return uuid.Nil, ErrMissingAddress
	}

	addrID, err := uuid.Parse(addressID)
	if err != nil {
		return uuid.Nil, ErrInvalidAddress
	}

	addr, err := s.addressRepo.GetUserAddress(ctx, addrID, userID)
	if err != nil {
		return uuid.Nil, err
	}
	if addr == nil {
		return uuid.Nil, address.ErrAddressNotFound
	}

	return addrID, nil
}

// priceLines recomputes each line from the catalog: discounted unit price
// times quantity. Every referenced product must exist; a stale cart line is
// a caller error on the synchronous paths.
func (s *service) priceLines(
	ctx context.Context,
	items []LineItemInput,
) ([]PricedLine, error) {

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]PricedLine, 0, len(items))
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok || p == nil {
			return nil, ErrProductNotFound
		}

		unit := pricing.DiscountedPrice(p.Price, p.Discount)
		amount := unit * item.Quantity

		lines = append(lines, PricedLine{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Quantity:  item.Quantity,
			Subtotal:  amount,
			Total:     amount,
		})
	}

	return lines, nil
}

func (s *service) PlaceCashOnDelivery(ctx context.Context, input CashOnDeliveryInput) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceCashOnDelivery"),
		zap.Uint("user_id", input.UserID),
		zap.Int("item_count", len(input.Items)),
	)

	// 1. Validate batch context
	addrID, err := s.validateBatch(ctx, input.UserID, input.AddressID, input.Items)
	if err != nil {
		log.Warn("cash on delivery validation failed", zap.Error(err))
		return nil, err
	}

	// 2. Recompute amounts from the catalog
	lines, err := s.priceLines(ctx, input.Items)
	if err != nil {
		log.Warn("failed to price line items", zap.Error(err))
		return nil, err
	}

	var subtotal int64
	for _, line := range lines {
		subtotal += line.Subtotal
	}
	if input.Subtotal != 0 && input.Subtotal != subtotal {
		log.Warn("client subtotal differs from server recompute",
			zap.Int64("client_subtotal", input.Subtotal),
			zap.Int64("server_subtotal", subtotal),
		)
	}

	// 3. Materialize one order per line
	orders, dropped := Materialize(lines, BatchContext{
		UserID:        input.UserID,
		AddressID:     addrID,
		PaymentID:     "",
		PaymentStatus: PaymentStatusCashOnDelivery,
	})
	if len(dropped) > 0 {
		log.Warn("dropped line items without product identity",
			zap.Int("dropped", len(dropped)),
		)
	}
	if len(orders) == 0 {
		return nil, ErrNoResolvableItems
	}

	// 4. Persist, then clear the cart. Clearing only runs once persistence
	// succeeded, so a failure here never loses a paid-for batch.
	if err := s.repo.InsertOrders(ctx, orders); err != nil {
		log.Error("failed to persist orders", zap.Error(err))
		return nil, ErrFailedCreateOrders
	}

	if err := s.cartSvc.Clear(ctx, input.UserID); err != nil {
		log.Error("orders persisted but cart clear failed", zap.Error(err))
		return nil, err
	}

	log.Info("cash on delivery order placed", zap.Int("orders", len(orders)))

	return orders, nil
}

func (s *service) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*payment.CheckoutSessionHandle, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateCheckoutSession"),
		zap.Uint("user_id", input.UserID),
		zap.Int("item_count", len(input.Items)),
	)

	// 1. Validate batch context
	addrID, err := s.validateBatch(ctx, input.UserID, input.AddressID, input.Items)
	if err != nil {
		log.Warn("checkout session validation failed", zap.Error(err))
		return nil, err
	}

	// 2. The provider needs the customer email on the session
	u, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}

	// 3. Price lines from the catalog; the provider is handed final
	// discounted unit amounts, never client figures
	lines, err := s.priceLines(ctx, input.Items)
	if err != nil {
		log.Warn("failed to price line items", zap.Error(err))
		return nil, err
	}

	req := payment.CheckoutSessionRequest{
		CustomerEmail: u.Email,
		UserID:        input.UserID,
		AddressID:     addrID.String(),
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
	}
	for _, line := range lines {
		req.Items = append(req.Items, payment.LineItemRequest{
			ProductID: line.ProductID,
			Name:      line.Name,
			Images:    line.Image,
			UnitPrice: line.Subtotal / line.Quantity,
			Quantity:  line.Quantity,
		})
	}

	// 4. Create the provider session
	handle, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		log.Error("failed to create checkout session", zap.Error(err))
		return nil, err
	}

	log.Info("checkout session created", zap.String("session_id", handle.SessionID))

	return handle, nil
}

// ReconcileSession turns a payment-completed session into persisted orders
// and clears the user's cart. It is safe to call more than once for the same
// session; a batch already recorded for the session's payment reference is
// acknowledged without writing anything.
func (s *service) ReconcileSession(ctx context.Context, sess payment.CompletedSession) (*ReconcileResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ReconcileSession"),
		zap.String("session_id", sess.ID),
	)

	// 1. Recover the batch context stamped into session metadata
	userID, err := utils.ToUint(sess.UserID)
	if err != nil || userID == 0 {
		log.Error("session metadata has no usable user id",
			zap.String("user_id", sess.UserID),
			zap.Error(err),
		)
		return nil, ErrUserNotAuthenticated
	}

	addrID, err := uuid.Parse(sess.AddressID)
	if err != nil {
		log.Error("session metadata has no usable address id",
			zap.String("address_id", sess.AddressID),
			zap.Error(err),
		)
		return nil, ErrInvalidAddress
	}

	paymentRef := sess.PaymentIntentID
	if paymentRef == "" {
		paymentRef = sess.ID
	}

	// 2. Payment-reference dedup. Event-id dedup upstream catches provider
	// redeliveries of the same event; this catches distinct events for an
	// already reconciled session.
	existing, err := s.repo.CountByPaymentID(ctx, paymentRef)
	if err != nil {
		log.Error("failed to check payment reference", zap.Error(err))
		return nil, err
	}
	if existing > 0 {
		log.Info("session already reconciled, acknowledging",
			zap.String("payment_id", paymentRef),
			zap.Int("existing_orders", existing),
		)
		return &ReconcileResult{AlreadyProcessed: true}, nil
	}

	// 3. Pull line items and resolve each back to a catalog product.
	// Provider fetch failures are returned so the delivery is retried;
	// lines whose metadata cannot name a product are dropped.
	items, err := s.gateway.ListLineItems(ctx, sess.ID)
	if err != nil {
		log.Error("failed to list session line items", zap.Error(err))
		return nil, err
	}
	if len(items) == 0 {
		log.Error("completed session has no line items")
		return nil, ErrNoResolvableItems
	}

	lines := make([]PricedLine, 0, len(items))
	for _, item := range items {
		var line PricedLine
		line.Quantity = item.Quantity

		// Provider amounts are minor units; storage is whole units
		line.Subtotal = item.AmountTotal / 100
		line.Total = item.AmountTotal / 100

		if item.ProductRef != "" {
			prod, err := s.gateway.GetProduct(ctx, item.ProductRef)
			if err != nil {
				log.Error("failed to fetch session product",
					zap.String("product_ref", item.ProductRef),
					zap.Error(err),
				)
				return nil, err
			}
			line.ProductID = prod.ProductID
			line.Name = prod.Name
			line.Image = prod.Images
		}

		lines = append(lines, line)
	}

	// 4. Materialize and persist
	orders, dropped := Materialize(lines, BatchContext{
		UserID:        userID,
		AddressID:     addrID,
		PaymentID:     paymentRef,
		PaymentStatus: sess.PaymentStatus,
	})
	if len(dropped) > 0 {
		log.Warn("dropped line items without resolvable product",
			zap.Int("dropped", len(dropped)),
			zap.Int("resolved", len(orders)),
		)
	}
	if len(orders) == 0 {
		log.Error("no line item resolved to a product")
		return nil, ErrNoResolvableItems
	}

	if err := s.repo.InsertOrders(ctx, orders); err != nil {
		log.Error("failed to persist reconciled orders", zap.Error(err))
		return nil, err
	}

	// 5. Clear the cart only after the batch is durably stored
	if err := s.cartSvc.Clear(ctx, userID); err != nil {
		log.Error("orders persisted but cart clear failed", zap.Error(err))
		return nil, err
	}

	log.Info("session reconciled",
		zap.Int("orders", len(orders)),
		zap.Int("dropped", len(dropped)),
		zap.String("payment_id", paymentRef),
	)

	return &ReconcileResult{Orders: orders, Dropped: len(dropped)}, nil
}

func (s *service) History(ctx context.Context, userID uint) ([]Order, error) {
	if userID == 0 {
		return nil, ErrUserNotAuthenticated
	}

	orders, err := s.repo.GetOrdersByUser(ctx, userID)
	if err != nil {
		return nil, ErrFailedGetOrders
	}

	return orders, nil
}
