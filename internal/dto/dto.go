package dto

import (
	"time"

	"foodcourt-ordering/internal/model"

	"github.com/shopspring/decimal"
)

type Item struct {
	DishID         string                `json:"dish_id" validate:"required"`
	Quantity       int                   `json:"quantity" validate:"required,min=1,max=99"`
	Customizations []model.Customization `json:"customizations" validate:"omitempty,max=20,dive"`
}

// --- orders ---

type CreateOrderRequest struct {
	FoodCourtID string          `json:"food_court_id" validate:"required"`
	OrderType   model.OrderType `json:"order_type" validate:"required,oneof=dine_in takeout delivery"`
	TableNumber *string         `json:"table_number" validate:"omitempty,max=16"`
	Remark      *string         `json:"remark" validate:"omitempty,max=512"`
	CouponCode  *string         `json:"coupon_code" validate:"omitempty,max=64"`
	Items       []*Item         `json:"items" validate:"omitempty,max=50,dive"`
	FromCart    bool            `json:"from_cart"`
	CartItemIDs []string        `json:"cart_item_ids" validate:"omitempty,max=50"`
}

type CreateOrderResponse struct {
	OrderID       string              `json:"order_id"`
	OrderNo       string              `json:"order_no"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	ItemCount     int                 `json:"item_count"`
	Status        model.OrderStatus   `json:"status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	Replayed      bool                `json:"replayed,omitempty"`
}

type ListOrdersQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=pending paid confirmed preparing ready completed cancelled refunded"`
	Page   int    `query:"page" validate:"omitempty,min=1"`
	Limit  int    `query:"limit" validate:"omitempty,min=1"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type ListOrdersResponse struct {
	Orders     []*model.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=512"`
}

type RefundOrderRequest struct {
	Reason       string           `json:"reason" validate:"omitempty,max=512"`
	RefundAmount *decimal.Decimal `json:"refund_amount"`
}

type RefundOrderResponse struct {
	OrderID      string          `json:"order_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required,oneof=confirmed preparing ready"`
}

// --- cart ---

type BatchAddRequest struct {
	Items []*Item `json:"items" validate:"required,min=1,max=50"`
}

type BatchAddError struct {
	Index   int    `json:"index"`
	DishID  string `json:"dish_id"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type BatchAddResponse struct {
	Added      []*model.CartLine `json:"added"`
	Errors     []*BatchAddError  `json:"errors"`
	TotalAdded int               `json:"total_added"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type CartItem struct {
	ID             string                `json:"id"`
	DishID         string                `json:"dish_id"`
	DishName       string                `json:"dish_name"`
	DishImage      string                `json:"dish_image"`
	DishPrice      decimal.Decimal       `json:"dish_price"`
	DishAvailable  bool                  `json:"dish_available"`
	DishSoldOut    bool                  `json:"dish_sold_out"`
	Quantity       int                   `json:"quantity"`
	Customizations []model.Customization `json:"customizations"`
	UnitPrice      decimal.Decimal       `json:"unit_price"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
}

type StallGroup struct {
	StallID   string          `json:"stall_id"`
	StallName string          `json:"stall_name"`
	Items     []*CartItem     `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartResponse struct {
	Groups    []*StallGroup   `json:"groups"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
}

// --- payment ---

type CreatePaymentRequest struct {
	OrderID   string            `json:"orderId" validate:"required"`
	Amount    *decimal.Decimal  `json:"amount"`
	Currency  string            `json:"currency" validate:"omitempty,len=3"`
	Provider  string            `json:"provider"`
	ReturnURL string            `json:"returnUrl" validate:"omitempty,url"`
	Metadata  map[string]string `json:"metadata"`
}

type PaymentResponse struct {
	PaymentID   string              `json:"payment_id"`
	Provider    string              `json:"provider"`
	OrderID     string              `json:"order_id"`
	Amount      decimal.Decimal     `json:"amount"`
	Currency    string              `json:"currency"`
	Status      model.PaymentStatus `json:"status"`
	CheckoutURL string              `json:"checkout_url,omitempty"`
}

type PaymentStatusResponse struct {
	PaymentID string `json:"payment_id"`
	Provider  string `json:"provider"`
	Status    string `json:"status"`
}

// --- webhooks ---

type WebhookReceipt struct {
	Received bool                   `json:"received"`
	LogID    uint                   `json:"log_id"`
	Status   model.WebhookLogStatus `json:"status"`
	OrderID  string                 `json:"order_id,omitempty"`
}

// --- inventory ---

type StockRequest struct {
	Action   model.InventoryLogType `json:"action" validate:"required,oneof=restock adjust set"`
	Quantity int                    `json:"quantity"`
	Reason   string                 `json:"reason" validate:"omitempty,max=512"`
}

type StockResponse struct {
	DishID        string `json:"dish_id"`
	PreviousStock int    `json:"previous_stock"`
	NewStock      int    `json:"new_stock"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
