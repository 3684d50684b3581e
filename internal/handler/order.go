package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"freshbasket-be/internal/address"
	"freshbasket-be/internal/order"
	"freshbasket-be/internal/utils"

	"freshbasket-be/internal/logger"

	"go.uber.org/zap"
)

type OrderHandler struct {
	orderSvc order.Service
}

func NewOrderHandler(orderSvc order.Service) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

type lineItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type cashOnDeliveryPayload struct {
	AddressID string            `json:"address_id"`
	Items     []lineItemPayload `json:"items"`
	Subtotal  int64             `json:"subtotal"`
	Total     int64             `json:"total"`
}

type checkoutSessionPayload struct {
	AddressID string            `json:"address_id"`
	Items     []lineItemPayload `json:"items"`
}

// CashOnDelivery places an order paid on delivery. Amounts in the payload are
// advisory; the server reprices every line from the catalog.
func (h *OrderHandler) CashOnDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("handler", "CashOnDelivery"))

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var payload cashOnDeliveryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := order.CashOnDeliveryInput{
		UserID:    userID,
		AddressID: payload.AddressID,
		Subtotal:  payload.Subtotal,
		Total:     payload.Total,
	}
	for _, item := range payload.Items {
		input.Items = append(input.Items, order.LineItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	orders, err := h.orderSvc.PlaceCashOnDelivery(ctx, input)
	if err != nil {
		log.Warn("cash on delivery failed", zap.Error(err))
		utils.WriteJSONError(w, err.Error(), orderErrorStatus(err))
		return
	}

	utils.WriteJSON(w, map[string]any{
		"message": "order placed",
		"orders":  orders,
	}, http.StatusCreated)
}

// CheckoutSession creates a provider-hosted payment session for the
// submitted cart lines and returns the redirect handle.
func (h *OrderHandler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("handler", "CheckoutSession"))

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var payload checkoutSessionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := order.CheckoutInput{
		UserID:    userID,
		AddressID: payload.AddressID,
	}
	for _, item := range payload.Items {
		input.Items = append(input.Items, order.LineItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	handle, err := h.orderSvc.CreateCheckoutSession(ctx, input)
	if err != nil {
		log.Warn("checkout session failed", zap.Error(err))
		utils.WriteJSONError(w, err.Error(), orderErrorStatus(err))
		return
	}

	utils.WriteJSON(w, handle, http.StatusOK)
}

// ListOrders returns the caller's orders, newest first.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("handler", "ListOrders"))

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orders, err := h.orderSvc.History(ctx, userID)
	if err != nil {
		log.Error("failed to list orders", zap.Error(err))
		utils.WriteJSONError(w, "failed to get orders", http.StatusInternalServerError)
		return
	}

	if orders == nil {
		orders = []order.Order{}
	}

	utils.WriteJSON(w, map[string]any{"orders": orders}, http.StatusOK)
}

func orderErrorStatus(err error) int {
	switch {
	case errors.Is(err, order.ErrUserNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrMissingAddress),
		errors.Is(err, order.ErrInvalidAddress),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrNoResolvableItems):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrProductNotFound),
		errors.Is(err, address.ErrAddressNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
