package handler

import (
	"errors"
	"net/http"

	"freshbasket-be/internal/cart"
	"freshbasket-be/internal/logger"
	"freshbasket-be/internal/pricing"
	"freshbasket-be/internal/utils"

	"go.uber.org/zap"
)

type CartHandler struct {
	cartSvc cart.Service
}

func NewCartHandler(cartSvc cart.Service) *CartHandler {
	return &CartHandler{cartSvc: cartSvc}
}

type cartItemView struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	Image     []string `json:"image"`
	Price     int64    `json:"price"`
	Discount  int64    `json:"discount"`
	UnitPrice int64    `json:"unit_price"`
	Quantity  int64    `json:"quantity"`
	Amount    int64    `json:"amount"`
}

// GetCart returns the caller's cart priced against the current catalog:
// discounted unit price and line amount per item plus batch totals.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("handler", "GetCart"))

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.cartSvc.Snapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrUserNotAuthenticated) {
			utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		log.Error("failed to get cart", zap.Error(err))
		utils.WriteJSONError(w, "failed to get cart", http.StatusInternalServerError)
		return
	}

	views := make([]cartItemView, 0, len(items))
	var subtotal int64
	for _, item := range items {
		unit := pricing.DiscountedPrice(item.Product.Price, item.Product.Discount)
		amount := unit * int64(item.Quantity)

		views = append(views, cartItemView{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Image:     item.Product.Image,
			Price:     item.Product.Price,
			Discount:  item.Product.Discount,
			UnitPrice: unit,
			Quantity:  int64(item.Quantity),
			Amount:    amount,
		})
		subtotal += amount
	}

	utils.WriteJSON(w, map[string]any{
		"items":    views,
		"subtotal": subtotal,
		"total":    subtotal,
	}, http.StatusOK)
}
