package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type FoodCourt struct {
	ID        string          `gorm:"primaryKey;size:36;not null" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Currency  string          `gorm:"size:8;not null" json:"currency"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"tax_rate"` // 0.06 = 6%
	Status    string          `gorm:"size:16;not null;default:active" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *time.Time      `gorm:"index" json:"deleted_at,omitempty"`
}

type Stall struct {
	ID          string     `gorm:"primaryKey;size:36;not null" json:"id"`
	FoodCourtID string     `gorm:"size:36;index;not null" json:"food_court_id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Status      string     `gorm:"size:16;not null;default:active" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

type Dish struct {
	ID                string          `gorm:"primaryKey;size:36;not null" json:"id"`
	StallID           string          `gorm:"size:36;index;not null" json:"stall_id"`
	Name              string          `gorm:"size:255;not null" json:"name"`
	NameEN            string          `gorm:"column:name_en;size:255" json:"name_en"`
	ImageURL          string          `gorm:"size:512" json:"image_url"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	IsAvailable       bool            `gorm:"not null;default:true" json:"is_available"`
	IsSoldOut         bool            `gorm:"not null;default:false" json:"is_sold_out"`
	MaxPerOrder       int             `gorm:"not null;default:0" json:"max_per_order"` // 0 = unlimited
	HasInventory      bool            `gorm:"not null;default:false" json:"has_inventory"`
	TotalStock        int             `gorm:"not null;default:0" json:"total_stock"`
	RemainingStock    int             `gorm:"not null;default:0" json:"remaining_stock"`
	LowStockThreshold int             `gorm:"not null;default:10" json:"low_stock_threshold"`
	TotalSold         int             `gorm:"not null;default:0" json:"total_sold"`
	LastRestockAt     *time.Time      `json:"last_restock_at,omitempty"`
	Status            string          `gorm:"size:16;not null;default:active" json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         *time.Time      `gorm:"index" json:"deleted_at,omitempty"`
}

// DisplayName picks the localized dish name for the request language.
func (d *Dish) DisplayName(lang string) string {
	if lang != "zh-CN" && d.NameEN != "" {
		return d.NameEN
	}
	return d.Name
}

// Orderable reports whether the dish may be put in a cart or order at all.
func (d *Dish) Orderable() bool {
	return d.IsAvailable && !d.IsSoldOut
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Promotion struct {
	ID            string          `gorm:"primaryKey;size:36;not null" json:"id"`
	FoodCourtID   *string         `gorm:"size:36;index" json:"food_court_id"` // nil = every food court
	CouponCode    string          `gorm:"size:64;uniqueIndex;not null" json:"coupon_code"`
	DiscountType  DiscountType    `gorm:"size:16;not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_value"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	Status        string          `gorm:"size:16;not null;default:active" json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}
