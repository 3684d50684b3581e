package handler

import (
	"net/http"

	"freshbasket-be/internal/logger"
	"freshbasket-be/internal/middleware"
	"freshbasket-be/internal/payment/webhook"

	"github.com/gorilla/mux"
)

// RegisterRoutes wires the fulfillment surface. The webhook endpoint is
// provider-authenticated by signature, so it sits outside the JWT middleware.
func RegisterRoutes(
	router *mux.Router,
	orderHandler *OrderHandler,
	cartHandler *CartHandler,
	webhookHandler *webhook.Handler,
) {
	router.Use(logger.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RateLimitMiddleware)

	router.HandleFunc("/api/order/webhook", webhookHandler.WebhookHandler).Methods(http.MethodPost)

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/order/cash-on-delivery", orderHandler.CashOnDelivery).Methods(http.MethodPost)
	protected.HandleFunc("/order/checkout-session", orderHandler.CheckoutSession).Methods(http.MethodPost)
	protected.HandleFunc("/order/list", orderHandler.ListOrders).Methods(http.MethodGet)
	protected.HandleFunc("/cart", cartHandler.GetCart).Methods(http.MethodGet)
}
