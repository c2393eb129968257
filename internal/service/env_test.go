package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"foodcourt-ordering/internal/apperr"
	"foodcourt-ordering/internal/config"
	"foodcourt-ordering/internal/dto"
	"foodcourt-ordering/internal/logger"
	"foodcourt-ordering/internal/model"
	"foodcourt-ordering/internal/payment"
	"foodcourt-ordering/internal/repository"
	"foodcourt-ordering/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_test"

var (
	guest    = model.Owner{SessionID: "sess-guest"}
	stranger = model.Owner{SessionID: "sess-stranger"}
)

type recorder struct {
	mu     sync.Mutex
	events []model.OrderEvent
}

func (r *recorder) Publish(event model.OrderEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) statuses(orderID string) []model.OrderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.OrderStatus
	for _, e := range r.events {
		if e.OrderID == orderID {
			out = append(out, e.Status)
		}
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	catalog   *testutil.Catalog
	orders    OrderService
	carts     CartService
	payments  PaymentService
	webhooks  WebhookService
	inventory InventoryService
	registry  *payment.Registry
	mock      *payment.MockProvider
	events    *recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	log := logger.Discard()

	orderRepo := repository.NewOrderRepository(db)
	dishRepo := repository.NewDishRepository(db)
	foodCourtRepo := repository.NewFoodCourtRepository(db)
	cartRepo := repository.NewCartRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	webhookLogRepo := repository.NewWebhookLogRepository(db)

	mock := payment.NewMockProvider(payment.NewMemoryLedger(), webhookSecret, true)
	generic := payment.NewGenericProvider(webhookSecret, true)
	registry := payment.NewRegistry(generic, mock, generic)

	events := &recorder{}
	inventory := NewInventoryService(db, inventoryRepo, dishRepo, log)
	orders := NewOrderService(db,
		config.Order{DefaultTaxRate: "0.06", IdempotencyWindow: 24 * time.Hour, NumberPrefix: "TEST"},
		orderRepo, dishRepo, foodCourtRepo, cartRepo, paymentRepo,
		inventory, NewPromotionResolver(foodCourtRepo), events, log)

	return &testEnv{
		db:        db,
		catalog:   testutil.SeedCatalog(t, db),
		orders:    orders,
		carts:     NewCartService(config.Cart{TTL: 24 * time.Hour, MaxItems: 3}, cartRepo, dishRepo, log),
		payments:  NewPaymentService(db, config.Payment{Currency: "MYR"}, registry, orderRepo, paymentRepo, log),
		webhooks:  NewWebhookService(db, registry, orders, orderRepo, paymentRepo, webhookLogRepo, events, log),
		inventory: inventory,
		registry:  registry,
		mock:      mock,
		events:    events,
	}
}

func item(dishID string, qty int, customizations ...model.Customization) *dto.Item {
	return &dto.Item{DishID: dishID, Quantity: qty, Customizations: customizations}
}

func (e *testEnv) orderRequest(items ...*dto.Item) *dto.CreateOrderRequest {
	return &dto.CreateOrderRequest{
		FoodCourtID: e.catalog.FoodCourt.ID,
		OrderType:   model.OrderDineIn,
		Items:       items,
	}
}

func (e *testEnv) placeOrder(t *testing.T, owner model.Owner, items ...*dto.Item) *dto.CreateOrderResponse {
	t.Helper()

	resp, err := e.orders.Create(context.Background(), owner, "en", "", e.orderRequest(items...))
	require.NoError(t, err)
	return resp
}

// deliver sends the mock gateway's signed callback for paymentID.
func (e *testEnv) deliver(t *testing.T, paymentID string, status payment.Status) (*dto.WebhookReceipt, error) {
	t.Helper()

	body, headers, err := e.mock.SimulateWebhook(paymentID, status)
	require.NoError(t, err)
	return e.webhooks.Ingest(context.Background(), "mock", headers, body)
}

func (e *testEnv) openPayment(t *testing.T, orderID string) string {
	t.Helper()

	resp, err := e.payments.Create(context.Background(), nil, &dto.CreatePaymentRequest{OrderID: orderID, Provider: "mock"})
	require.NoError(t, err)
	return resp.PaymentID
}

func requireAppErr(t *testing.T, err error, kind apperr.Kind, code int) *apperr.Error {
	t.Helper()

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	require.Equal(t, kind, appErr.Kind, appErr.Message)
	require.Equal(t, code, appErr.Code, appErr.Message)
	return appErr
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
