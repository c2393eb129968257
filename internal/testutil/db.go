// Package testutil opens throwaway databases and seeds catalog fixtures for tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"foodcourt-ordering/internal/client"
	"foodcourt-ordering/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated SQLite database in a temp dir. Transactions take the
// write lock up front so concurrent tests see the same serialization MySQL gives.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type Catalog struct {
	FoodCourt  *model.FoodCourt
	Stall      *model.Stall
	OtherStall *model.Stall
}

// SeedCatalog creates one food court taxed at 6% with two stalls.
func SeedCatalog(t *testing.T, db *gorm.DB) *Catalog {
	t.Helper()

	foodCourt := &model.FoodCourt{
		ID:       uuid.NewString(),
		Name:     "Test Court",
		Currency: "MYR",
		TaxRate:  decimal.RequireFromString("0.06"),
		Status:   "active",
	}
	require.NoError(t, db.Create(foodCourt).Error)

	stall := &model.Stall{ID: uuid.NewString(), FoodCourtID: foodCourt.ID, Name: "Noodle Stall", Status: "active"}
	other := &model.Stall{ID: uuid.NewString(), FoodCourtID: foodCourt.ID, Name: "Rice Stall", Status: "active"}
	require.NoError(t, db.Create(stall).Error)
	require.NoError(t, db.Create(other).Error)

	return &Catalog{FoodCourt: foodCourt, Stall: stall, OtherStall: other}
}

// AddDish creates an available dish; opts may tweak it before insert.
func AddDish(t *testing.T, db *gorm.DB, stallID, price string, opts ...func(*model.Dish)) *model.Dish {
	t.Helper()

	dish := &model.Dish{
		ID:          uuid.NewString(),
		StallID:     stallID,
		Name:        "Dish " + price,
		NameEN:      "Dish " + price,
		Price:       decimal.RequireFromString(price),
		IsAvailable: true,
		Status:      "active",
	}
	for _, opt := range opts {
		opt(dish)
	}
	require.NoError(t, db.Create(dish).Error)

	// zero values are skipped for columns with a default on insert
	if !dish.IsAvailable {
		require.NoError(t, db.Model(dish).Update("is_available", false).Error)
	}
	return dish
}

func WithStock(stock int) func(*model.Dish) {
	return func(d *model.Dish) {
		d.HasInventory = true
		d.TotalStock = stock
		d.RemainingStock = stock
	}
}

func SoldOut(d *model.Dish) {
	d.IsSoldOut = true
}

func Unavailable(d *model.Dish) {
	d.IsAvailable = false
}

func MaxPerOrder(n int) func(*model.Dish) {
	return func(d *model.Dish) {
		d.MaxPerOrder = n
	}
}

// ReloadDish reads the current row of a dish.
func ReloadDish(t *testing.T, db *gorm.DB, dishID string) *model.Dish {
	t.Helper()

	var dish model.Dish
	require.NoError(t, db.Where("id = ?", dishID).First(&dish).Error)
	return &dish
}

func ReloadOrder(t *testing.T, db *gorm.DB, orderID string) *model.Order {
	t.Helper()

	var order model.Order
	require.NoError(t, db.Preload("Items").Where("id = ?", orderID).First(&order).Error)
	return &order
}

func Count(t *testing.T, db *gorm.DB, m interface{}, where ...interface{}) int64 {
	t.Helper()

	var n int64
	q := db.Model(m)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
