package main

import (
	"log"
	"net/http"

	"freshbasket-be/internal/address"
	"freshbasket-be/internal/cart"
	"freshbasket-be/internal/config"
	"freshbasket-be/internal/db"
	"freshbasket-be/internal/handler"
	"freshbasket-be/internal/logger"
	"freshbasket-be/internal/order"
	"freshbasket-be/internal/payment"
	"freshbasket-be/internal/payment/webhook"
	"freshbasket-be/internal/product"
	"freshbasket-be/internal/user"
	"freshbasket-be/internal/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	productRepo := product.NewRepository(database)
	addressRepo := address.NewRepository(database)
	userRepo := user.NewRepository(database)

	cartRepo := cart.NewRepository(database)
	cartSvc := cart.NewService(cartRepo)

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	paymentRepo := payment.NewRepository(database)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(
		orderRepo, productRepo, addressRepo, userRepo, cartSvc, gateway,
		cfg.SuccessURL(), cfg.CancelURL(),
	)

	router := setupRouter(orderSvc, cartSvc, gateway, paymentRepo)

	logger.L().Info("server running", zap.String("port", cfg.AppPort))
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, router))
}

func setupRouter(
	orderSvc order.Service,
	cartSvc cart.Service,
	gateway payment.Gateway,
	paymentRepo payment.Repository,
) *mux.Router {

	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	}).Methods(http.MethodGet)

	handler.RegisterRoutes(
		router,
		handler.NewOrderHandler(orderSvc),
		handler.NewCartHandler(cartSvc),
		webhook.NewWebhookHandler(orderSvc, gateway, paymentRepo),
	)

	return router
}
