package model

import "time"

type CartStatus string

const (
	CartActive  CartStatus = "active"
	CartOrdered CartStatus = "ordered"
	CartDeleted CartStatus = "deleted"
)

type CartLine struct {
	ID               string          `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID           *string         `gorm:"size:64;index" json:"user_id"`
	SessionID        *string         `gorm:"size:64;index" json:"session_id"`
	FoodCourtID      string          `gorm:"size:36;index;not null" json:"food_court_id"`
	DishID           string          `gorm:"size:36;index;not null" json:"dish_id"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	Customizations   []Customization `gorm:"serializer:json;type:text" json:"customizations"`
	CustomizationKey string          `gorm:"size:512;index" json:"-"` // canonical form used to merge identical selections
	DishSnapshot     DishSnapshot    `gorm:"serializer:json;type:text" json:"dish_snapshot"`
	Status           CartStatus      `gorm:"size:16;index;not null" json:"status"`
	ExpiresAt        time.Time       `gorm:"index" json:"expires_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (CartLine) TableName() string {
	return "cart_lines"
}
