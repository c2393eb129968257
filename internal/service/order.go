package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"foodcourt-ordering/internal/apperr"
	"foodcourt-ordering/internal/config"
	"foodcourt-ordering/internal/dto"
	"foodcourt-ordering/internal/model"
	"foodcourt-ordering/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	createAttempts  = 3
)

// errDuplicateOrder means a unique index rejected the insert: either the
// order number collided or a concurrent request used the same idempotency key.
var errDuplicateOrder = errors.New("duplicate order")

var kitchenTransitions = map[model.OrderStatus]struct {
	from  []model.OrderStatus
	items []model.ItemStatus
	to    model.ItemStatus
}{
	model.OrderConfirmed: {
		from:  []model.OrderStatus{model.OrderPending, model.OrderPaid},
		items: []model.ItemStatus{model.ItemPending},
		to:    model.ItemConfirmed,
	},
	model.OrderPreparing: {
		from:  []model.OrderStatus{model.OrderConfirmed},
		items: []model.ItemStatus{model.ItemPending, model.ItemConfirmed},
		to:    model.ItemPreparing,
	},
	model.OrderReady: {
		from:  []model.OrderStatus{model.OrderPreparing},
		items: []model.ItemStatus{model.ItemPending, model.ItemConfirmed, model.ItemPreparing},
		to:    model.ItemReady,
	},
}

var openItemStatuses = []model.ItemStatus{
	model.ItemPending, model.ItemConfirmed, model.ItemPreparing, model.ItemReady,
}

type OrderService interface {
	Create(ctx context.Context, owner model.Owner, lang, idempotencyKey string, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
	List(ctx context.Context, userID string, query *dto.ListOrdersQuery) (*dto.ListOrdersResponse, error)
	Get(ctx context.Context, actor model.Actor, orderID string) (*model.Order, error)
	Cancel(ctx context.Context, actor model.Actor, orderID, reason string) (*model.Order, error)
	// Complete reports whether the order moved from ready to completed.
	Complete(ctx context.Context, orderID string) (bool, error)
	Refund(ctx context.Context, actor model.Actor, orderID string, req *dto.RefundOrderRequest) (*dto.RefundOrderResponse, error)
	AdvanceStatus(ctx context.Context, orderID string, to model.OrderStatus) (*model.Order, error)

	// Payment outcomes, applied inside the reconciler's transaction. Each
	// reports false when the order was no longer in a state the outcome applies to.
	MarkPaid(ctx context.Context, tx *gorm.DB, order *model.Order, transactionID string) (bool, error)
	MarkPaymentFailed(ctx context.Context, tx *gorm.DB, order *model.Order) (bool, error)
	MarkPaymentProcessing(ctx context.Context, tx *gorm.DB, order *model.Order) (bool, error)
}

type orderServiceImpl struct {
	db            *gorm.DB
	cfg           config.Order
	orderRepo     repository.OrderRepository
	dishRepo      repository.DishRepository
	foodCourtRepo repository.FoodCourtRepository
	cartRepo      repository.CartRepository
	paymentRepo   repository.PaymentRepository
	inventory     InventoryService
	discounts     DiscountResolver
	publisher     Publisher
	numbers       *orderNumbers
	log           *slog.Logger
}

func NewOrderService(
	db *gorm.DB,
	cfg config.Order,
	orderRepo repository.OrderRepository,
	dishRepo repository.DishRepository,
	foodCourtRepo repository.FoodCourtRepository,
	cartRepo repository.CartRepository,
	paymentRepo repository.PaymentRepository,
	inventory InventoryService,
	discounts DiscountResolver,
	publisher Publisher,
	logger *slog.Logger,
) OrderService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &orderServiceImpl{
		db:            db,
		cfg:           cfg,
		orderRepo:     orderRepo,
		dishRepo:      dishRepo,
		foodCourtRepo: foodCourtRepo,
		cartRepo:      cartRepo,
		paymentRepo:   paymentRepo,
		inventory:     inventory,
		discounts:     discounts,
		publisher:     publisher,
		numbers:       newOrderNumbers(cfg.NumberPrefix),
		log:           logger.With("component", "order"),
	}
}

// line is one validated, priced order line before it is written.
type line struct {
	view           *repository.DishView
	quantity       int
	customizations []model.Customization
	unitPrice      decimal.Decimal
	subtotal       decimal.Decimal
}

func (s *orderServiceImpl) Create(ctx context.Context, owner model.Owner, lang, idempotencyKey string, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	if owner.Empty() {
		return nil, apperr.Unauthorized(apperr.CodeUnauthenticated, "login or guest session required")
	}
	if !req.FromCart && len(req.Items) == 0 {
		return nil, apperr.Validation("items are required")
	}

	foodCourt, err := s.foodCourtRepo.Get(ctx, req.FoodCourtID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("food court not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get food court: %w", err)
	}

	if idempotencyKey != "" {
		if existing, ok, err := s.findReplay(ctx, owner, idempotencyKey); err != nil || ok {
			return existing, err
		}
	}

	for attempt := 1; ; attempt++ {
		order, err := s.createOnce(ctx, owner, lang, idempotencyKey, foodCourt, req)
		if err == nil {
			s.log.Info("order created", "order_id", order.ID, "order_no", order.OrderNo, "total_amount", order.TotalAmount.StringFixed(2), "items", order.ItemCount)
			s.publisher.Publish(orderEvent(order, order.Status))
			return createResponse(order, false), nil
		}
		if !errors.Is(err, errDuplicateOrder) {
			if appErr, ok := apperr.As(err); ok && appErr.Kind == apperr.KindConflict {
				s.log.Warn("order rejected", "food_court_id", req.FoodCourtID, "reason", appErr.Message)
			}
			return nil, err
		}

		if idempotencyKey != "" {
			if existing, ok, err := s.findReplay(ctx, owner, idempotencyKey); err != nil || ok {
				return existing, err
			}
		}
		if attempt == createAttempts {
			return nil, apperr.Internal(err, "could not allocate order number")
		}
	}
}

func (s *orderServiceImpl) findReplay(ctx context.Context, owner model.Owner, key string) (*dto.CreateOrderResponse, bool, error) {
	since := time.Now().UTC().Add(-s.cfg.IdempotencyWindow)
	existing, err := s.orderRepo.FindByIdempotencyKey(ctx, owner, key, since)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find order by idempotency key: %w", err)
	}
	return createResponse(existing, true), true, nil
}

func createResponse(order *model.Order, replayed bool) *dto.CreateOrderResponse {
	return &dto.CreateOrderResponse{
		OrderID:       order.ID,
		OrderNo:       order.OrderNo,
		TotalAmount:   order.TotalAmount,
		ItemCount:     order.ItemCount,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Replayed:      replayed,
	}
}

func (s *orderServiceImpl) createOnce(ctx context.Context, owner model.Owner, lang, idempotencyKey string, foodCourt *model.FoodCourt, req *dto.CreateOrderRequest) (*model.Order, error) {
	var order *model.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := req.Items
		var cartLineIDs []string
		if req.FromCart {
			cartLines, err := s.cartRepo.ListActive(ctx, tx, owner, foodCourt.ID, req.CartItemIDs, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("list cart lines: %w", err)
			}
			if len(cartLines) == 0 {
				return apperr.Validation("cart is empty")
			}
			items = make([]*dto.Item, len(cartLines))
			for i, cl := range cartLines {
				items[i] = &dto.Item{DishID: cl.DishID, Quantity: cl.Quantity, Customizations: cl.Customizations}
				cartLineIDs = append(cartLineIDs, cl.ID)
			}
		}

		lines, err := s.validateLines(ctx, tx, foodCourt.ID, items)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		itemCount := 0
		for _, l := range lines {
			subtotal = subtotal.Add(l.subtotal)
			itemCount += l.quantity
		}

		discount := decimal.Zero
		if req.CouponCode != nil && *req.CouponCode != "" {
			discount, err = s.discounts.Resolve(ctx, *req.CouponCode, foodCourt.ID, subtotal)
			if err != nil {
				return err
			}
		}

		taxRate := foodCourt.TaxRate
		if taxRate.IsZero() {
			taxRate, err = decimal.NewFromString(s.cfg.DefaultTaxRate)
			if err != nil {
				return apperr.Internal(err, "invalid default tax rate")
			}
		}
		totals := computeTotals(subtotal, taxRate, discount)

		userID, sessionID := owner.OrderOwner()
		order = &model.Order{
			ID:             uuid.NewString(),
			OrderNo:        s.numbers.Next(),
			UserID:         userID,
			GuestSessionID: sessionID,
			FoodCourtID:    foodCourt.ID,
			OrderType:      req.OrderType,
			TableNumber:    req.TableNumber,
			ItemCount:      itemCount,
			Subtotal:       totals.Subtotal,
			TaxAmount:      totals.Tax,
			DiscountAmount: totals.Discount,
			TotalAmount:    totals.Total,
			PaidAmount:     decimal.Zero,
			CouponCode:     req.CouponCode,
			PaymentStatus:  model.PaymentPending,
			Status:         model.OrderPending,
			UserRemark:     req.Remark,
		}
		if idempotencyKey != "" {
			order.IdempotencyKey = &idempotencyKey

			// a key past its window may be reused for a new order
			cutoff := time.Now().UTC().Add(-s.cfg.IdempotencyWindow)
			if err := s.orderRepo.ReleaseIdempotencyKey(ctx, tx, owner, idempotencyKey, cutoff); err != nil {
				return fmt.Errorf("release idempotency key: %w", err)
			}
		}

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateOrder
			}
			return fmt.Errorf("store order in db: %w", err)
		}

		orderItems := make([]*model.OrderItem, len(lines))
		for i, l := range lines {
			dishID, stallID := l.view.ID, l.view.StallID
			orderItems[i] = &model.OrderItem{
				OrderID: order.ID,
				DishID:  &dishID,
				DishSnapshot: model.DishSnapshot{
					Name:     l.view.DisplayName(lang),
					ImageURL: l.view.ImageURL,
					Price:    l.view.Price,
				},
				StallID:        &stallID,
				StallName:      l.view.StallName,
				Quantity:       l.quantity,
				UnitPrice:      l.unitPrice,
				OriginalPrice:  l.view.Price,
				Subtotal:       l.subtotal,
				Customizations: l.customizations,
				Status:         model.ItemPending,
			}
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}

		for _, l := range lines {
			if _, err := s.inventory.IncreaseSold(ctx, tx, l.view.ID, l.quantity, order.ID); err != nil {
				return err
			}
		}

		if req.FromCart {
			marked, err := s.cartRepo.MarkOrdered(ctx, tx, owner, cartLineIDs)
			if err != nil {
				return fmt.Errorf("mark cart ordered: %w", err)
			}
			if marked != int64(len(cartLineIDs)) {
				return apperr.Conflict(apperr.CodeConflict, "cart changed during checkout")
			}
		}

		order.Items = orderItems
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// validateLines checks every requested line before anything is written; the
// first violation rejects the whole order.
func (s *orderServiceImpl) validateLines(ctx context.Context, tx *gorm.DB, foodCourtID string, items []*dto.Item) ([]*line, error) {
	lines := make([]*line, 0, len(items))
	// limits apply to the dish, however many lines it is split across
	requested := make(map[string]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be positive")
		}

		view, err := s.dishRepo.FindView(ctx, tx, item.DishID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("dish not found").WithDetails(map[string]interface{}{"dish_id": item.DishID})
		}
		if err != nil {
			return nil, fmt.Errorf("find dish: %w", err)
		}

		quantity := requested[view.ID] + item.Quantity
		requested[view.ID] = quantity

		details := map[string]interface{}{"dish_id": item.DishID}
		switch {
		case view.FoodCourtID != foodCourtID:
			return nil, apperr.Validation("dish does not belong to this food court").WithDetails(details)
		case !view.IsAvailable:
			return nil, apperr.Conflict(apperr.CodeSoldOut, "dish is unavailable").WithDetails(details)
		case view.IsSoldOut:
			return nil, apperr.Conflict(apperr.CodeSoldOut, "dish is sold out").WithDetails(details)
		case view.MaxPerOrder > 0 && quantity > view.MaxPerOrder:
			details["max_per_order"] = view.MaxPerOrder
			return nil, apperr.Conflict(apperr.CodeLimitExceeded, "quantity exceeds per-order limit").WithDetails(details)
		case view.HasInventory && quantity > view.RemainingStock:
			details["remaining_stock"] = view.RemainingStock
			return nil, apperr.Conflict(apperr.CodeSoldOut, "insufficient stock").WithDetails(details)
		}

		unit := unitPrice(view.Price, item.Customizations)
		lines = append(lines, &line{
			view:           view,
			quantity:       item.Quantity,
			customizations: item.Customizations,
			unitPrice:      unit,
			subtotal:       unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return lines, nil
}

func (s *orderServiceImpl) List(ctx context.Context, userID string, query *dto.ListOrdersQuery) (*dto.ListOrdersResponse, error) {
	page, limit := query.Page, query.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	orders, total, err := s.orderRepo.List(ctx, repository.OrderFilter{
		UserID: userID,
		Status: query.Status,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return &dto.ListOrdersResponse{
		Orders:     orders,
		Pagination: dto.Pagination{Page: page, Limit: limit, Total: total},
	}, nil
}

func (s *orderServiceImpl) Get(ctx context.Context, actor model.Actor, orderID string) (*model.Order, error) {
	return s.load(ctx, nil, actor, orderID)
}

// load collapses "missing" and "not yours" into the same NotFound.
func (s *orderServiceImpl) load(ctx context.Context, tx *gorm.DB, actor model.Actor, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, tx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if !actor.CanAccess(order) {
		return nil, apperr.NotFound("order not found")
	}
	return order, nil
}

func (s *orderServiceImpl) Cancel(ctx context.Context, actor model.Actor, orderID, reason string) (*model.Order, error) {
	if reason == "" {
		reason = "Cancelled by customer"
	}

	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.load(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}

		if order.Status != model.OrderPending && order.Status != model.OrderPaid {
			return apperr.Conflict(apperr.CodeInvalidState, fmt.Sprintf("order cannot be cancelled in status %s", order.Status))
		}

		now := time.Now().UTC()
		changed, err := s.orderRepo.Transition(ctx, tx, order.ID,
			map[string]interface{}{"status IN ?": []model.OrderStatus{model.OrderPending, model.OrderPaid}},
			map[string]interface{}{
				"status":        model.OrderCancelled,
				"cancel_reason": reason,
				"cancelled_at":  now,
			})
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		if !changed {
			return apperr.Conflict(apperr.CodeInvalidState, "order status changed, cannot cancel")
		}

		if err := s.orderRepo.UpdateItemsStatus(ctx, tx, order.ID, openItemStatuses, model.ItemCancelled); err != nil {
			return fmt.Errorf("cancel order items: %w", err)
		}
		if err := s.inventory.ReverseOrder(ctx, tx, order.ID, order.Items, model.InventoryCancel); err != nil {
			return err
		}

		order.Status = model.OrderCancelled
		order.CancelReason = &reason
		order.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order cancelled", "order_id", order.ID, "reason", reason)
	s.publisher.Publish(orderEvent(order, model.OrderCancelled))
	return order, nil
}

func (s *orderServiceImpl) Complete(ctx context.Context, orderID string) (bool, error) {
	var order *model.Order
	var changed bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		changed, err = s.orderRepo.Transition(ctx, tx, orderID,
			map[string]interface{}{"status = ?": model.OrderReady},
			map[string]interface{}{
				"status":       model.OrderCompleted,
				"completed_at": time.Now().UTC(),
			})
		if err != nil || !changed {
			return err
		}

		if err := s.orderRepo.UpdateItemsStatus(ctx, tx, orderID, openItemStatuses, model.ItemServed); err != nil {
			return fmt.Errorf("serve order items: %w", err)
		}

		order, err = s.orderRepo.FindByRef(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("complete order: %w", err)
	}

	if changed {
		s.log.Info("order completed", "order_id", orderID)
		s.publisher.Publish(orderEvent(order, model.OrderCompleted))
	}
	return changed, nil
}

func (s *orderServiceImpl) Refund(ctx context.Context, actor model.Actor, orderID string, req *dto.RefundOrderRequest) (*dto.RefundOrderResponse, error) {
	var order *model.Order
	var amount decimal.Decimal

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.load(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}

		amount = order.TotalAmount
		if req.RefundAmount != nil {
			amount = *req.RefundAmount
		}
		if !amount.IsPositive() {
			return apperr.Validation("refund amount must be positive")
		}
		if amount.GreaterThan(order.TotalAmount) {
			return apperr.Validation("refund amount exceeds order total")
		}

		if order.Status == model.OrderCancelled || order.Status == model.OrderRefunded {
			return apperr.Conflict(apperr.CodeInvalidState, fmt.Sprintf("order cannot be refunded in status %s", order.Status))
		}

		changed, err := s.orderRepo.Transition(ctx, tx, order.ID,
			map[string]interface{}{"status NOT IN ?": closedStatuses},
			map[string]interface{}{
				"status":         model.OrderRefunded,
				"refund_amount":  amount,
				"refund_reason":  req.Reason,
				"refund_time":    time.Now().UTC(),
				"payment_status": gorm.Expr("CASE WHEN payment_status = ? THEN ? ELSE payment_status END", model.PaymentPaid, model.PaymentRefunded),
			})
		if err != nil {
			return fmt.Errorf("refund order: %w", err)
		}
		if !changed {
			return apperr.Conflict(apperr.CodeInvalidState, "order status changed, cannot refund")
		}

		if err := s.paymentRepo.MarkOrderPaymentsRefunded(ctx, tx, order.ID); err != nil {
			return fmt.Errorf("mark payments refunded: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order refunded", "order_id", order.ID, "refund_amount", amount.StringFixed(2))
	s.publisher.Publish(orderEvent(order, model.OrderRefunded))
	return &dto.RefundOrderResponse{OrderID: order.ID, RefundAmount: amount}, nil
}

func (s *orderServiceImpl) AdvanceStatus(ctx context.Context, orderID string, to model.OrderStatus) (*model.Order, error) {
	rule, ok := kitchenTransitions[to]
	if !ok {
		return nil, apperr.Validation(fmt.Sprintf("cannot move order to %s", to))
	}

	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.orderRepo.Transition(ctx, tx, orderID,
			map[string]interface{}{"status IN ?": rule.from},
			map[string]interface{}{"status": to})
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		if !changed {
			if _, err := s.orderRepo.FindByRef(ctx, tx, orderID); errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order not found")
			}
			return apperr.Conflict(apperr.CodeInvalidState, fmt.Sprintf("order cannot move to %s", to))
		}

		if err := s.orderRepo.UpdateItemsStatus(ctx, tx, orderID, rule.items, rule.to); err != nil {
			return fmt.Errorf("update order items: %w", err)
		}

		order, err = s.orderRepo.FindByID(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status advanced", "order_id", orderID, "status", to)
	s.publisher.Publish(orderEvent(order, to))
	return order, nil
}

var (
	settleable = []model.PaymentStatus{model.PaymentPending, model.PaymentProcessing}

	// orders in these states no longer take payment updates
	closedStatuses = []model.OrderStatus{model.OrderCancelled, model.OrderRefunded}

	// paying an order the kitchen already picked up leaves its status alone
	unconfirmedStatuses = []model.OrderStatus{model.OrderPending, model.OrderPaid}
)

func (s *orderServiceImpl) MarkPaid(ctx context.Context, tx *gorm.DB, order *model.Order, transactionID string) (bool, error) {
	updates := map[string]interface{}{
		"payment_status": model.PaymentPaid,
		"status":         gorm.Expr("CASE WHEN status IN ? THEN ? ELSE status END", unconfirmedStatuses, model.OrderConfirmed),
		"paid_amount":    gorm.Expr("total_amount"),
		"paid_at":        time.Now().UTC(),
	}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}

	changed, err := s.orderRepo.Transition(ctx, tx, order.ID,
		map[string]interface{}{"payment_status IN ?": settleable, "status NOT IN ?": closedStatuses},
		updates)
	if err != nil || !changed {
		return false, err
	}

	if err := s.orderRepo.UpdateItemsStatus(ctx, tx, order.ID, []model.ItemStatus{model.ItemPending}, model.ItemConfirmed); err != nil {
		return false, fmt.Errorf("confirm order items: %w", err)
	}
	return true, nil
}

func (s *orderServiceImpl) MarkPaymentFailed(ctx context.Context, tx *gorm.DB, order *model.Order) (bool, error) {
	changed, err := s.orderRepo.Transition(ctx, tx, order.ID,
		map[string]interface{}{"payment_status IN ?": settleable, "status = ?": model.OrderPending},
		map[string]interface{}{
			"payment_status": model.PaymentFailed,
			"status":         model.OrderCancelled,
			"cancel_reason":  "Payment failed",
			"cancelled_at":   time.Now().UTC(),
		})
	if err != nil || !changed {
		return false, err
	}

	if err := s.orderRepo.UpdateItemsStatus(ctx, tx, order.ID, openItemStatuses, model.ItemCancelled); err != nil {
		return false, fmt.Errorf("cancel order items: %w", err)
	}

	items := order.Items
	if items == nil {
		if items, err = s.orderRepo.GetOrderItems(ctx, tx, order.ID); err != nil {
			return false, fmt.Errorf("get order items: %w", err)
		}
	}
	if err := s.inventory.ReverseOrder(ctx, tx, order.ID, items, model.InventoryPaymentFailed); err != nil {
		return false, err
	}
	return true, nil
}

func (s *orderServiceImpl) MarkPaymentProcessing(ctx context.Context, tx *gorm.DB, order *model.Order) (bool, error) {
	return s.orderRepo.Transition(ctx, tx, order.ID,
		map[string]interface{}{"payment_status = ?": model.PaymentPending, "status NOT IN ?": closedStatuses},
		map[string]interface{}{"payment_status": model.PaymentProcessing})
}
