package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment associates one provider payment attempt with one order.
type Payment struct {
	ID            string          `gorm:"primaryKey;size:128;not null" json:"payment_id"` // provider payment id
	Provider      string          `gorm:"size:32;index;not null" json:"provider"`
	OrderID       string          `gorm:"size:36;index;not null" json:"order_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string          `gorm:"size:8;not null" json:"currency"`
	Status        PaymentStatus   `gorm:"size:16;index;not null" json:"status"`
	TransactionID *string         `gorm:"size:128" json:"transaction_id"`
	CheckoutURL   string          `gorm:"size:1024" json:"checkout_url"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Active reports whether the attempt can still settle.
func (p *Payment) Active() bool {
	return p.Status == PaymentPending || p.Status == PaymentProcessing || p.Status == PaymentPaid
}

type WebhookLogStatus string

const (
	WebhookProcessed WebhookLogStatus = "processed"
	WebhookDuplicate WebhookLogStatus = "duplicate"
	WebhookIgnored   WebhookLogStatus = "ignored"
	WebhookFailed    WebhookLogStatus = "failed"
	WebhookRetrying  WebhookLogStatus = "retrying"
)

// WebhookLog is append-only; only retry bookkeeping is ever updated.
type WebhookLog struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Provider     string            `gorm:"size:32;index;not null" json:"provider"`
	Event        string            `gorm:"size:32" json:"event"`
	PaymentID    *string           `gorm:"size:128;index" json:"payment_id"`
	OrderID      *string           `gorm:"size:36;index" json:"order_id"`
	Status       WebhookLogStatus  `gorm:"size:16;index;not null" json:"status"`
	ErrorMessage *string           `gorm:"size:1024" json:"error_message"`
	Payload      string            `gorm:"type:text" json:"payload"`
	Truncated    bool              `gorm:"not null;default:false" json:"truncated"`
	Headers      map[string]string `gorm:"serializer:json;type:text" json:"headers"`
	RetryCount   int               `gorm:"not null;default:0" json:"retry_count"`
	LastRetryAt  *time.Time        `json:"last_retry_at"`
	ReplayOf     *uint             `gorm:"index" json:"replay_of"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
}

type InventoryLogType string

const (
	InventorySale          InventoryLogType = "sale"
	InventoryCancel        InventoryLogType = "cancel"
	InventoryPaymentFailed InventoryLogType = "payment_failed"
	InventoryRestock       InventoryLogType = "restock"
	InventoryAdjust        InventoryLogType = "adjust"
	InventorySet           InventoryLogType = "set"
)

// InventoryLog is the audit trail for every stock-affecting operation.
type InventoryLog struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	DishID         string           `gorm:"size:36;index;not null" json:"dish_id"`
	LogType        InventoryLogType `gorm:"size:32;not null" json:"log_type"`
	ChangeQuantity int              `gorm:"not null" json:"change_quantity"`
	PreviousStock  int              `gorm:"not null" json:"previous_stock"`
	NewStock       int              `gorm:"not null" json:"new_stock"`
	OrderID        *string          `gorm:"size:36;index" json:"order_id"`
	Note           *string          `gorm:"size:512" json:"note"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (InventoryLog) TableName() string {
	return "dish_inventory_logs"
}
