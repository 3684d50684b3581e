package order

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"freshbasket-be/internal/address"
	"freshbasket-be/internal/cart"
	"freshbasket-be/internal/payment"
	"freshbasket-be/internal/product"
	"freshbasket-be/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testAddrID = uuid.MustParse("7b66aa3d-55c7-4a2f-9c91-6c1c2f1f43aa")

func newTestService(
	repo *MockOrderRepository,
	productRepo *MockProductRepository,
	addressRepo *MockAddressRepository,
	userRepo *MockUserRepository,
	cartSvc *MockCartService,
	gateway *MockGateway,
) Service {
	return NewService(
		repo, productRepo, addressRepo, userRepo, cartSvc, gateway,
		"https://shop.example/success", "https://shop.example/cancel",
	)
}

func TestService_PlaceCashOnDelivery(t *testing.T) {
	t.Run("Success_One_Order_Per_Line", func(t *testing.T) {
		repo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		addressRepo := new(MockAddressRepository)
		userRepo := new(MockUserRepository)
		cartSvc := new(MockCartService)
		gateway := new(MockGateway)
		svc := newTestService(repo, productRepo, addressRepo, userRepo, cartSvc, gateway)

		addressRepo.On("GetUserAddress", mock.Anything, testAddrID, uint(42)).
			Return(&address.Address{ID: testAddrID, UserID: 42}, nil)
		productRepo.On("GetByIDs", mock.Anything, []string{"p1", "p2", "p3"}).
			Return(map[string]*product.Product{
				"p1": {ID: "p1", Name: "Rice", Price: 100, Discount: 10},
				"p2": {ID: "p2", Name: "Ghee", Price: 99, Discount: 10},
				"p3": {ID: "p3", Name: "Salt", Price: 20, Discount: 0},
			}, nil)

		var inserted []Order
		repo.On("InsertOrders", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				inserted = args.Get(1).([]Order)
			}).Return(nil)
		cartSvc.On("Clear", mock.Anything, uint(42)).Return(nil)

		orders, err := svc.PlaceCashOnDelivery(context.Background(), CashOnDeliveryInput{
			UserID:    42,
			AddressID: testAddrID.String(),
			Items: []LineItemInput{
				{ProductID: "p1", Quantity: 2},
				{ProductID: "p2", Quantity: 1},
				{ProductID: "p3", Quantity: 3},
			},
		})

		require.NoError(t, err)
		require.Len(t, orders, 3)
		require.Len(t, inserted, 3)

		// Recomputed amounts: 90*2, 89*1, 20*3
		assert.Equal(t, int64(180), orders[0].Subtotal)
		assert.Equal(t, int64(89), orders[1].Subtotal)
		assert.Equal(t, int64(60), orders[2].Subtotal)

		seen := map[string]bool{}
		for _, o := range orders {
			assert.Equal(t, uint(42), o.UserID)
			assert.Equal(t, PaymentStatusCashOnDelivery, o.PaymentStatus)
			assert.Equal(t, testAddrID, o.DeliveryAddress)
			assert.Empty(t, o.PaymentID)
			assert.Equal(t, o.Subtotal, o.Total)
			assert.False(t, seen[o.OrderID], "order ids must be unique")
			seen[o.OrderID] = true
		}

		cartSvc.AssertCalled(t, "Clear", mock.Anything, uint(42))
	})

	t.Run("Empty_Items", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := newTestService(repo, new(MockProductRepository), new(MockAddressRepository),
			new(MockUserRepository), new(MockCartService), new(MockGateway))

		_, err := svc.PlaceCashOnDelivery(context.Background(), CashOnDeliveryInput{
			UserID:    42,
			AddressID: testAddrID.String(),
		})

		assert.ErrorIs(t, err, ErrEmptyCart)
		repo.AssertNotCalled(t, "InsertOrders")
	})

	t.Run("Missing_Address", func(t *testing.T) {
		svc := newTestService(new(MockOrderRepository), new(MockProductRepository),
			new(MockAddressRepository), new(MockUserRepository), new(MockCartService), new(MockGateway))

		_, err := svc.PlaceCashOnDelivery(context.Background(), CashOnDeliveryInput{
			UserID: 42,
			Items:  []LineItemInput{{ProductID: "p1", Quantity: 1}},
		})

		assert.ErrorIs(t, err, ErrMissingAddress)
	})

	t.Run("Address_Not_Owned", func(t *testing.T) {
		addressRepo := new(MockAddressRepository)
		addressRepo.On("GetUserAddress", mock.Anything, testAddrID, uint(42)).
			Return(nil, nil)
		svc := newTestService(new(MockOrderRepository), new(MockProductRepository),
			addressRepo, new(MockUserRepository), new(MockCartService), new(MockGateway))

		_, err := svc.PlaceCashOnDelivery(context.Background(), CashOnDeliveryInput{
			UserID:    42,
			AddressID: testAddrID.String(),
			Items:     []LineItemInput{{ProductID: "p1", Quantity: 1}},
		})

		assert.ErrorIs(t, err, address.ErrAddressNotFound)
	})

	t.Run("Unknown_Product", func(t *testing.T) {
		repo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		addressRepo := new(MockAddressRepository)
		cartSvc := new(MockCartService)
		svc := newTestService(repo, productRepo, addressRepo,
			new(MockUserRepository), cartSvc, new(MockGateway))

		addressRepo.On("GetUserAddress", mock.Anything, testAddrID, uint(42)).
			Return(&address.Address{ID: testAddrID, UserID: 42}, nil)
		productRepo.On("GetByIDs", mock.Anything, []string{"gone"}).
			Return(map[string]*product.Product{}, nil)

		_, err := svc.PlaceCashOnDelivery(context.Background(), CashOnDeliveryInput{
			UserID:    42,
			AddressID: testAddrID.String(),
			Items:     []LineItemInput{{ProductID: "gone", Quantity: 1}},
		})

		assert.ErrorIs(t, err, ErrProductNotFound)
		repo.AssertNotCalled(t, "InsertOrders")
		cartSvc.AssertNotCalled(t, "Clear")
	})

	t.Run("Persist_Failure_Leaves_Cart", func(t *testing.T) {
		repo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		addressRepo := new(MockAddressRepository)
		cartSvc := new(MockCartService)
		svc := newTestService(repo, productRepo, addressRepo,
			new(MockUserRepository), cartSvc, new(MockGateway))

		addressRepo.On("GetUserAddress", mock.Anything, testAddrID, uint(42)).
			Return(&address.Address{ID: testAddrID, UserID: 42}, nil)
		productRepo.On("GetByIDs", mock.Anything, []string{"p1"}).
			Return(map[string]*product.Product{
				"p1": {ID: "p1", Name: "Rice", Price: 100, Discount: 0},
			}, nil)
		repo.On("InsertOrders", mock.Anything, mock.Anything).
			Return(errors.New("db down"))

		_, err := svc.PlaceCashOnDelivery(context.Background(), CashOnDeliveryInput{
			UserID:    42,
			AddressID: testAddrID.String(),
			Items:     []LineItemInput{{ProductID: "p1", Quantity: 1}},
		})

		assert.ErrorIs(t, err, ErrFailedCreateOrders)
		cartSvc.AssertNotCalled(t, "Clear")
	})

	t.Run("Invalid_Quantity", func(t *testing.T) {
		addressRepo := new(MockAddressRepository)
		addressRepo.On("GetUserAddress", mock.Anything, testAddrID, uint(42)).
			Return(&address.Address{ID: testAddrID, UserID: 42}, nil)
		svc := newTestService(new(MockOrderRepository), new(MockProductRepository),
			addressRepo, new(MockUserRepository), new(MockCartService), new(MockGateway))

		_, err := svc.PlaceCashOnDelivery(context.Background(), CashOnDeliveryInput{
			UserID:    42,
			AddressID: testAddrID.String(),
			Items:     []LineItemInput{{ProductID: "p1", Quantity: 0}},
		})

		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestService_CreateCheckoutSession(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		addressRepo := new(MockAddressRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		svc := newTestService(repo, productRepo, addressRepo, userRepo, new(MockCartService), gateway)

		addressRepo.On("GetUserAddress", mock.Anything, testAddrID, uint(42)).
			Return(&address.Address{ID: testAddrID, UserID: 42}, nil)
		userRepo.On("GetByID", mock.Anything, uint(42)).
			Return(&user.User{ID: 42, Email: "buyer@example.com"}, nil)
		productRepo.On("GetByIDs", mock.Anything, []string{"p1"}).
			Return(map[string]*product.Product{
				"p1": {ID: "p1", Name: "Rice", Image: []string{"rice.png"}, Price: 100, Discount: 10},
			}, nil)

		gateway.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req payment.CheckoutSessionRequest) bool {
			return req.CustomerEmail == "buyer@example.com" &&
				req.UserID == 42 &&
				req.AddressID == testAddrID.String() &&
				req.SuccessURL == "https://shop.example/success" &&
				len(req.Items) == 1 &&
				req.Items[0].UnitPrice == 90 &&
				req.Items[0].Quantity == 2
		})).Return(&payment.CheckoutSessionHandle{
			SessionID: "cs_test_1",
			URL:       "https://checkout.example/cs_test_1",
		}, nil)

		handle, err := svc.CreateCheckoutSession(context.Background(), CheckoutInput{
			UserID:    42,
			AddressID: testAddrID.String(),
			Items:     []LineItemInput{{ProductID: "p1", Quantity: 2}},
		})

		require.NoError(t, err)
		assert.Equal(t, "cs_test_1", handle.SessionID)
		gateway.AssertExpectations(t)
	})

	t.Run("User_Not_Found", func(t *testing.T) {
		addressRepo := new(MockAddressRepository)
		userRepo := new(MockUserRepository)
		gateway := new(MockGateway)
		svc := newTestService(new(MockOrderRepository), new(MockProductRepository),
			addressRepo, userRepo, new(MockCartService), gateway)

		addressRepo.On("GetUserAddress", mock.Anything, testAddrID, uint(42)).
			Return(&address.Address{ID: testAddrID, UserID: 42}, nil)
		userRepo.On("GetByID", mock.Anything, uint(42)).Return(nil, nil)

		_, err := svc.CreateCheckoutSession(context.Background(), CheckoutInput{
			UserID:    42,
			AddressID: testAddrID.String(),
			Items:     []LineItemInput{{ProductID: "p1", Quantity: 1}},
		})

		assert.ErrorIs(t, err, user.ErrUserNotFound)
		gateway.AssertNotCalled(t, "CreateCheckoutSession")
	})
}

func TestService_ReconcileSession(t *testing.T) {
	completed := payment.CompletedSession{
		ID:              "cs_test_1",
		UserID:          "42",
		AddressID:       testAddrID.String(),
		PaymentIntentID: "pi_1",
		PaymentStatus:   "paid",
	}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockOrderRepository)
		cartSvc := new(MockCartService)
		gateway := new(MockGateway)
		svc := newTestService(repo, new(MockProductRepository), new(MockAddressRepository),
			new(MockUserRepository), cartSvc, gateway)

		repo.On("CountByPaymentID", mock.Anything, "pi_1").Return(0, nil)
		gateway.On("ListLineItems", mock.Anything, "cs_test_1").
			Return([]payment.SessionLineItem{
				{ProductRef: "stripe_prod_1", AmountTotal: 18000, Quantity: 2},
				{ProductRef: "stripe_prod_2", AmountTotal: 8900, Quantity: 1},
			}, nil)
		gateway.On("GetProduct", mock.Anything, "stripe_prod_1").
			Return(&payment.SessionProduct{ProductRef: "stripe_prod_1", ProductID: "p1", Name: "Rice"}, nil)
		gateway.On("GetProduct", mock.Anything, "stripe_prod_2").
			Return(&payment.SessionProduct{ProductRef: "stripe_prod_2", ProductID: "p2", Name: "Ghee"}, nil)

		var inserted []Order
		repo.On("InsertOrders", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				inserted = args.Get(1).([]Order)
			}).Return(nil)
		cartSvc.On("Clear", mock.Anything, uint(42)).Return(nil)

		result, err := svc.ReconcileSession(context.Background(), completed)

		require.NoError(t, err)
		assert.False(t, result.AlreadyProcessed)
		require.Len(t, result.Orders, 2)
		require.Len(t, inserted, 2)

		// Provider reports minor units, storage keeps whole units
		assert.Equal(t, int64(180), inserted[0].Total)
		assert.Equal(t, int64(89), inserted[1].Total)
		assert.Equal(t, "pi_1", inserted[0].PaymentID)
		assert.Equal(t, "paid", inserted[0].PaymentStatus)
	})

	t.Run("Already_Reconciled", func(t *testing.T) {
		repo := new(MockOrderRepository)
		cartSvc := new(MockCartService)
		gateway := new(MockGateway)
		svc := newTestService(repo, new(MockProductRepository), new(MockAddressRepository),
			new(MockUserRepository), cartSvc, gateway)

		repo.On("CountByPaymentID", mock.Anything, "pi_1").Return(2, nil)

		result, err := svc.ReconcileSession(context.Background(), completed)

		require.NoError(t, err)
		assert.True(t, result.AlreadyProcessed)
		gateway.AssertNotCalled(t, "ListLineItems")
		repo.AssertNotCalled(t, "InsertOrders")
		cartSvc.AssertNotCalled(t, "Clear")
	})

	t.Run("Partial_Resolution_Drops_Line", func(t *testing.T) {
		repo := new(MockOrderRepository)
		cartSvc := new(MockCartService)
		gateway := new(MockGateway)
		svc := newTestService(repo, new(MockProductRepository), new(MockAddressRepository),
			new(MockUserRepository), cartSvc, gateway)

		repo.On("CountByPaymentID", mock.Anything, "pi_1").Return(0, nil)
		gateway.On("ListLineItems", mock.Anything, "cs_test_1").
			Return([]payment.SessionLineItem{
				{ProductRef: "stripe_prod_1", AmountTotal: 9000, Quantity: 1},
				{ProductRef: "stripe_prod_2", AmountTotal: 8900, Quantity: 1},
				{ProductRef: "stripe_prod_3", AmountTotal: 2000, Quantity: 1},
			}, nil)
		gateway.On("GetProduct", mock.Anything, "stripe_prod_1").
			Return(&payment.SessionProduct{ProductRef: "stripe_prod_1", ProductID: "p1", Name: "Rice"}, nil)
		// Session product without the catalog id in its metadata
		gateway.On("GetProduct", mock.Anything, "stripe_prod_2").
			Return(&payment.SessionProduct{ProductRef: "stripe_prod_2", Name: "Mystery"}, nil)
		gateway.On("GetProduct", mock.Anything, "stripe_prod_3").
			Return(&payment.SessionProduct{ProductRef: "stripe_prod_3", ProductID: "p3", Name: "Salt"}, nil)

		repo.On("InsertOrders", mock.Anything, mock.Anything).Return(nil)
		cartSvc.On("Clear", mock.Anything, uint(42)).Return(nil)

		result, err := svc.ReconcileSession(context.Background(), completed)

		require.NoError(t, err)
		assert.Len(t, result.Orders, 2)
		assert.Equal(t, 1, result.Dropped)
	})

	t.Run("Nothing_Resolves", func(t *testing.T) {
		repo := new(MockOrderRepository)
		gateway := new(MockGateway)
		svc := newTestService(repo, new(MockProductRepository), new(MockAddressRepository),
			new(MockUserRepository), new(MockCartService), gateway)

		repo.On("CountByPaymentID", mock.Anything, "pi_1").Return(0, nil)
		gateway.On("ListLineItems", mock.Anything, "cs_test_1").
			Return([]payment.SessionLineItem{
				{ProductRef: "stripe_prod_1", AmountTotal: 9000, Quantity: 1},
			}, nil)
		gateway.On("GetProduct", mock.Anything, "stripe_prod_1").
			Return(&payment.SessionProduct{ProductRef: "stripe_prod_1"}, nil)

		_, err := svc.ReconcileSession(context.Background(), completed)

		assert.ErrorIs(t, err, ErrNoResolvableItems)
		repo.AssertNotCalled(t, "InsertOrders")
	})

	t.Run("Provider_Fetch_Failure_Propagates", func(t *testing.T) {
		repo := new(MockOrderRepository)
		cartSvc := new(MockCartService)
		gateway := new(MockGateway)
		svc := newTestService(repo, new(MockProductRepository), new(MockAddressRepository),
			new(MockUserRepository), cartSvc, gateway)

		repo.On("CountByPaymentID", mock.Anything, "pi_1").Return(0, nil)
		gateway.On("ListLineItems", mock.Anything, "cs_test_1").
			Return(nil, payment.ErrGateway)

		_, err := svc.ReconcileSession(context.Background(), completed)

		assert.ErrorIs(t, err, payment.ErrGateway)
		repo.AssertNotCalled(t, "InsertOrders")
		cartSvc.AssertNotCalled(t, "Clear")
	})

	t.Run("Malformed_Metadata", func(t *testing.T) {
		svc := newTestService(new(MockOrderRepository), new(MockProductRepository),
			new(MockAddressRepository), new(MockUserRepository), new(MockCartService), new(MockGateway))

		bad := completed
		bad.UserID = "not-a-number"

		_, err := svc.ReconcileSession(context.Background(), bad)
		assert.ErrorIs(t, err, ErrUserNotAuthenticated)
	})

	t.Run("Falls_Back_To_Session_ID_Without_Intent", func(t *testing.T) {
		repo := new(MockOrderRepository)
		cartSvc := new(MockCartService)
		gateway := new(MockGateway)
		svc := newTestService(repo, new(MockProductRepository), new(MockAddressRepository),
			new(MockUserRepository), cartSvc, gateway)

		noIntent := completed
		noIntent.PaymentIntentID = ""

		repo.On("CountByPaymentID", mock.Anything, "cs_test_1").Return(0, nil)
		gateway.On("ListLineItems", mock.Anything, "cs_test_1").
			Return([]payment.SessionLineItem{
				{ProductRef: "stripe_prod_1", AmountTotal: 9000, Quantity: 1},
			}, nil)
		gateway.On("GetProduct", mock.Anything, "stripe_prod_1").
			Return(&payment.SessionProduct{ProductRef: "stripe_prod_1", ProductID: "p1", Name: "Rice"}, nil)

		var inserted []Order
		repo.On("InsertOrders", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				inserted = args.Get(1).([]Order)
			}).Return(nil)
		cartSvc.On("Clear", mock.Anything, uint(42)).Return(nil)

		_, err := svc.ReconcileSession(context.Background(), noIntent)

		require.NoError(t, err)
		require.Len(t, inserted, 1)
		assert.Equal(t, "cs_test_1", inserted[0].PaymentID)
	})
}

func TestService_History(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := newTestService(repo, new(MockProductRepository), new(MockAddressRepository),
			new(MockUserRepository), new(MockCartService), new(MockGateway))

		repo.On("GetOrdersByUser", mock.Anything, uint(42)).
			Return([]Order{{OrderID: "ORD-b"}, {OrderID: "ORD-a"}}, nil)

		orders, err := svc.History(context.Background(), 42)

		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		svc := newTestService(new(MockOrderRepository), new(MockProductRepository),
			new(MockAddressRepository), new(MockUserRepository), new(MockCartService), new(MockGateway))

		_, err := svc.History(context.Background(), 0)
		assert.ErrorIs(t, err, ErrUserNotAuthenticated)
	})
}

// --- Mocks ---

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) InsertOrders(ctx context.Context, orders []Order) error {
	args := m.Called(ctx, orders)
	return args.Error(0)
}

func (m *MockOrderRepository) CountByPaymentID(ctx context.Context, paymentID string) (int, error) {
	args := m.Called(ctx, paymentID)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderRepository) GetOrdersByUser(ctx context.Context, userID uint) ([]Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, productID string) (*product.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, productIDs []string) (map[string]*product.Product, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*product.Product), args.Error(1)
}

type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) GetByID(ctx context.Context, id uuid.UUID) (*address.Address, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*address.Address), args.Error(1)
}

func (m *MockAddressRepository) GetUserAddress(ctx context.Context, addressID uuid.UUID, userID uint) (*address.Address, error) {
	args := m.Called(ctx, addressID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*address.Address), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID uint) (*user.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Snapshot(ctx context.Context, userID uint) ([]cart.CartItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.CartItem), args.Error(1)
}

func (m *MockCartService) Clear(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutSessionRequest) (*payment.CheckoutSessionHandle, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSessionHandle), args.Error(1)
}

func (m *MockGateway) ListLineItems(ctx context.Context, sessionID string) ([]payment.SessionLineItem, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.SessionLineItem), args.Error(1)
}

func (m *MockGateway) GetProduct(ctx context.Context, productRef string) (*payment.SessionProduct, error) {
	args := m.Called(ctx, productRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.SessionProduct), args.Error(1)
}

func (m *MockGateway) VerifyWebhook(r *http.Request) (*payment.WebhookEvent, error) {
	args := m.Called(r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}
