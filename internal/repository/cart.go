package repository

import (
	"context"
	"time"

	"foodcourt-ordering/internal/model"

	"gorm.io/gorm"
)

type CartRepository interface {
	Create(ctx context.Context, line *model.CartLine) error
	ListActive(ctx context.Context, tx *gorm.DB, owner model.Owner, foodCourtID string, lineIDs []string, now time.Time) ([]*model.CartLine, error)
	FindActive(ctx context.Context, owner model.Owner, lineID string) (*model.CartLine, error)
	FindMergeable(ctx context.Context, owner model.Owner, dishID, customizationKey string, now time.Time) (*model.CartLine, error)
	CountActive(ctx context.Context, owner model.Owner, now time.Time) (int64, error)
	UpdateQuantity(ctx context.Context, owner model.Owner, lineID string, quantity int) (bool, error)
	SoftDelete(ctx context.Context, owner model.Owner, lineID string) error
	Clear(ctx context.Context, owner model.Owner) error
	// MarkOrdered flips active lines to ordered and reports how many it flipped.
	MarkOrdered(ctx context.Context, tx *gorm.DB, owner model.Owner, lineIDs []string) (int64, error)
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func (r *cartRepoImpl) Create(ctx context.Context, line *model.CartLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *cartRepoImpl) active(db *gorm.DB, owner model.Owner) *gorm.DB {
	return db.Model(&model.CartLine{}).
		Scopes(ownedBy(owner)).
		Where("status = ?", model.CartActive)
}

func (r *cartRepoImpl) ListActive(ctx context.Context, tx *gorm.DB, owner model.Owner, foodCourtID string, lineIDs []string, now time.Time) ([]*model.CartLine, error) {
	q := r.active(conn(r.db, tx).WithContext(ctx), owner).Where("expires_at > ?", now)
	if foodCourtID != "" {
		q = q.Where("food_court_id = ?", foodCourtID)
	}
	if len(lineIDs) > 0 {
		q = q.Where("id IN ?", lineIDs)
	}

	var lines []*model.CartLine
	if err := q.Order("created_at DESC").Find(&lines).Error; err != nil {
		return nil, err
	}

	return lines, nil
}

func (r *cartRepoImpl) FindActive(ctx context.Context, owner model.Owner, lineID string) (*model.CartLine, error) {
	var line model.CartLine
	err := r.active(r.db.WithContext(ctx), owner).
		Where("id = ?", lineID).
		First(&line).Error
	if err != nil {
		return nil, err
	}

	return &line, nil
}

func (r *cartRepoImpl) FindMergeable(ctx context.Context, owner model.Owner, dishID, customizationKey string, now time.Time) (*model.CartLine, error) {
	var line model.CartLine
	err := r.active(r.db.WithContext(ctx), owner).
		Where("dish_id = ? AND customization_key = ? AND expires_at > ?", dishID, customizationKey, now).
		First(&line).Error
	if err != nil {
		return nil, err
	}

	return &line, nil
}

func (r *cartRepoImpl) CountActive(ctx context.Context, owner model.Owner, now time.Time) (int64, error) {
	var count int64
	err := r.active(r.db.WithContext(ctx), owner).
		Where("expires_at > ?", now).
		Count(&count).Error

	return count, err
}

func (r *cartRepoImpl) UpdateQuantity(ctx context.Context, owner model.Owner, lineID string, quantity int) (bool, error) {
	result := r.active(r.db.WithContext(ctx), owner).
		Where("id = ?", lineID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *cartRepoImpl) SoftDelete(ctx context.Context, owner model.Owner, lineID string) error {
	return r.active(r.db.WithContext(ctx), owner).
		Where("id = ?", lineID).
		Updates(map[string]interface{}{
			"status":     model.CartDeleted,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *cartRepoImpl) Clear(ctx context.Context, owner model.Owner) error {
	return r.active(r.db.WithContext(ctx), owner).
		Updates(map[string]interface{}{
			"status":     model.CartDeleted,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *cartRepoImpl) MarkOrdered(ctx context.Context, tx *gorm.DB, owner model.Owner, lineIDs []string) (int64, error) {
	result := r.active(tx.WithContext(ctx), owner).
		Where("id IN ?", lineIDs).
		Updates(map[string]interface{}{
			"status":     model.CartOrdered,
			"updated_at": time.Now().UTC(),
		})

	return result.RowsAffected, result.Error
}
