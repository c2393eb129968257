package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

// Terminal reports whether no further lifecycle transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled || s == OrderRefunded
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

type OrderType string

const (
	OrderDineIn   OrderType = "dine_in"
	OrderTakeout  OrderType = "takeout"
	OrderDelivery OrderType = "delivery"
)

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemConfirmed ItemStatus = "confirmed"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemServed    ItemStatus = "served"
	ItemCancelled ItemStatus = "cancelled"
)

type Order struct {
	ID             string           `gorm:"primaryKey;size:36;not null" json:"id"`
	OrderNo        string           `gorm:"size:32;uniqueIndex;not null" json:"order_no"`
	UserID         *string          `gorm:"size:64;index;uniqueIndex:idx_order_user_idem" json:"user_id"`
	GuestSessionID *string          `gorm:"size:64;index;uniqueIndex:idx_order_guest_idem" json:"guest_session_id"`
	IdempotencyKey *string          `gorm:"size:128;uniqueIndex:idx_order_user_idem;uniqueIndex:idx_order_guest_idem" json:"-"`
	FoodCourtID    string           `gorm:"size:36;index;not null" json:"food_court_id"`
	OrderType      OrderType        `gorm:"size:16;not null" json:"order_type"`
	TableNumber    *string          `gorm:"size:16" json:"table_number"`
	ItemCount      int              `gorm:"not null" json:"item_count"`
	Subtotal       decimal.Decimal  `gorm:"column:subtotal_amount;type:decimal(12,2);not null" json:"subtotal_amount"`
	TaxAmount      decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	TotalAmount    decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaidAmount     decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"paid_amount"`
	CouponCode     *string          `gorm:"size:64" json:"coupon_code"`
	PaymentStatus  PaymentStatus    `gorm:"size:16;index;not null" json:"payment_status"`
	Status         OrderStatus      `gorm:"size:16;index;not null" json:"status"`
	TransactionID  *string          `gorm:"size:128" json:"transaction_id"`
	UserRemark     *string          `gorm:"size:512" json:"user_remark"`
	CancelReason   *string          `gorm:"size:512" json:"cancel_reason"`
	RefundAmount   *decimal.Decimal `gorm:"type:decimal(12,2)" json:"refund_amount"`
	RefundReason   *string          `gorm:"size:512" json:"refund_reason"`
	PaidAt         *time.Time       `json:"paid_at"`
	CancelledAt    *time.Time       `json:"cancelled_at"`
	CompletedAt    *time.Time       `json:"completed_at"`
	RefundTime     *time.Time       `json:"refund_time"`
	CreatedAt      time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	Items []*OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// OwnedBy reports whether the principal identified by userID/sessionID owns the order.
func (o *Order) OwnedBy(userID, sessionID string) bool {
	if o.UserID != nil && userID != "" && *o.UserID == userID {
		return true
	}
	return o.GuestSessionID != nil && sessionID != "" && *o.GuestSessionID == sessionID
}

type Customization struct {
	Group         string          `json:"group" validate:"required"`
	Option        string          `json:"option" validate:"required"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
}

// DishSnapshot freezes what the customer saw when the line was created.
type DishSnapshot struct {
	Name     string          `json:"name"`
	ImageURL string          `json:"image_url"`
	Price    decimal.Decimal `json:"price"`
}

type OrderItem struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderID        string          `gorm:"size:36;index;not null" json:"order_id"`
	DishID         *string         `gorm:"size:36;index" json:"dish_id"` // nil once the dish is purged
	DishSnapshot   DishSnapshot    `gorm:"serializer:json;type:text" json:"dish_snapshot"`
	StallID        *string         `gorm:"size:36;index" json:"stall_id"`
	StallName      string          `gorm:"size:255" json:"stall_name"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	OriginalPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"original_price"`
	Subtotal       decimal.Decimal `gorm:"column:subtotal_amount;type:decimal(12,2);not null" json:"subtotal_amount"`
	Customizations []Customization `gorm:"column:customization_details;serializer:json;type:text" json:"customizations"`
	Status         ItemStatus      `gorm:"size:16;not null" json:"status"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
