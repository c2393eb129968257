package repository

import (
	"context"
	"errors"
	"time"

	"foodcourt-ordering/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientStock is returned when a conditional stock decrement matches no row.
var ErrInsufficientStock = errors.New("insufficient stock")

// StockChange describes one applied stock mutation.
type StockChange struct {
	DishID        string
	PreviousStock int
	NewStock      int
}

type InventoryRepository interface {
	// Reserve atomically takes qty units from tracked stock and bumps total_sold.
	Reserve(ctx context.Context, tx *gorm.DB, dishID string, qty int) (*StockChange, error)
	// Release puts qty units back and takes them off total_sold.
	Release(ctx context.Context, tx *gorm.DB, dishID string, qty int) (*StockChange, error)
	// LockDish loads a dish row for update.
	LockDish(ctx context.Context, tx *gorm.DB, dishID string) (*model.Dish, error)
	SetStock(ctx context.Context, tx *gorm.DB, dish *model.Dish, newStock int, addedToTotal int, restocked bool) error
	AppendLog(ctx context.Context, tx *gorm.DB, entry *model.InventoryLog) error
	ListLogs(ctx context.Context, dishID string, limit int) ([]*model.InventoryLog, error)
}

type inventoryRepoImpl struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepoImpl{
		db: db,
	}
}

func (r *inventoryRepoImpl) Reserve(ctx context.Context, tx *gorm.DB, dishID string, qty int) (*StockChange, error) {
	dish, err := r.stockOf(ctx, tx, dishID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	q := tx.WithContext(ctx).Model(&model.Dish{}).Where("id = ? AND deleted_at IS NULL", dishID)
	updates := map[string]interface{}{
		"total_sold": gorm.Expr("total_sold + ?", qty),
		"updated_at": now,
	}
	if dish.HasInventory {
		q = q.Where("remaining_stock >= ?", qty)
		updates["remaining_stock"] = gorm.Expr("remaining_stock - ?", qty)
	}

	result := q.Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInsufficientStock
	}

	delta := 0
	if dish.HasInventory {
		delta = -qty
	}

	return r.afterChange(ctx, tx, dishID, dish.HasInventory, delta)
}

func (r *inventoryRepoImpl) Release(ctx context.Context, tx *gorm.DB, dishID string, qty int) (*StockChange, error) {
	result := tx.WithContext(ctx).Model(&model.Dish{}).
		Where("id = ?", dishID).
		Updates(map[string]interface{}{
			"remaining_stock": gorm.Expr("remaining_stock + ?", qty),
			"total_sold":      gorm.Expr("CASE WHEN total_sold >= ? THEN total_sold - ? ELSE 0 END", qty, qty),
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	dish, err := r.stockOf(ctx, tx, dishID)
	if err != nil {
		return nil, err
	}

	return r.afterChange(ctx, tx, dishID, dish.HasInventory, qty)
}

func (r *inventoryRepoImpl) LockDish(ctx context.Context, tx *gorm.DB, dishID string) (*model.Dish, error) {
	var dish model.Dish
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(notDeleted).
		Where("id = ?", dishID).
		First(&dish).Error
	if err != nil {
		return nil, err
	}

	return &dish, nil
}

func (r *inventoryRepoImpl) SetStock(ctx context.Context, tx *gorm.DB, dish *model.Dish, newStock int, addedToTotal int, restocked bool) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"remaining_stock": newStock,
		"total_stock":     gorm.Expr("total_stock + ?", addedToTotal),
		"updated_at":      now,
	}
	if dish.HasInventory {
		updates["is_sold_out"] = newStock <= 0
	}
	if restocked {
		updates["last_restock_at"] = now
	}

	return tx.WithContext(ctx).Model(&model.Dish{}).
		Where("id = ?", dish.ID).
		Updates(updates).Error
}

func (r *inventoryRepoImpl) AppendLog(ctx context.Context, tx *gorm.DB, entry *model.InventoryLog) error {
	return conn(r.db, tx).WithContext(ctx).Create(entry).Error
}

func (r *inventoryRepoImpl) ListLogs(ctx context.Context, dishID string, limit int) ([]*model.InventoryLog, error) {
	var logs []*model.InventoryLog

	err := r.db.WithContext(ctx).
		Where("dish_id = ?", dishID).
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *inventoryRepoImpl) stockOf(ctx context.Context, tx *gorm.DB, dishID string) (*model.Dish, error) {
	var dish model.Dish
	err := tx.WithContext(ctx).
		Select("id", "has_inventory", "remaining_stock").
		Where("id = ?", dishID).
		First(&dish).Error
	if err != nil {
		return nil, err
	}

	return &dish, nil
}

// afterChange refreshes the sold-out flag of tracked dishes and reports the stock delta.
func (r *inventoryRepoImpl) afterChange(ctx context.Context, tx *gorm.DB, dishID string, tracked bool, delta int) (*StockChange, error) {
	if tracked {
		err := tx.WithContext(ctx).Model(&model.Dish{}).
			Where("id = ?", dishID).
			Update("is_sold_out", gorm.Expr("remaining_stock <= 0")).Error
		if err != nil {
			return nil, err
		}
	}

	var dish model.Dish
	if err := tx.WithContext(ctx).Select("remaining_stock").Where("id = ?", dishID).First(&dish).Error; err != nil {
		return nil, err
	}

	return &StockChange{
		DishID:        dishID,
		PreviousStock: dish.RemainingStock - delta,
		NewStock:      dish.RemainingStock,
	}, nil
}
