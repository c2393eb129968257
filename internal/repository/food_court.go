package repository

import (
	"context"
	"time"

	"foodcourt-ordering/internal/model"

	"gorm.io/gorm"
)

type FoodCourtRepository interface {
	Get(ctx context.Context, foodCourtID string) (*model.FoodCourt, error)
	FindPromotion(ctx context.Context, code, foodCourtID string, at time.Time) (*model.Promotion, error)
}

type foodCourtRepoImpl struct {
	db *gorm.DB
}

func NewFoodCourtRepository(db *gorm.DB) FoodCourtRepository {
	return &foodCourtRepoImpl{
		db: db,
	}
}

func (r *foodCourtRepoImpl) Get(ctx context.Context, foodCourtID string) (*model.FoodCourt, error) {
	var foodCourt model.FoodCourt
	err := r.db.WithContext(ctx).
		Scopes(notDeleted).
		Where("id = ? AND status = ?", foodCourtID, "active").
		First(&foodCourt).Error
	if err != nil {
		return nil, err
	}

	return &foodCourt, nil
}

func (r *foodCourtRepoImpl) FindPromotion(ctx context.Context, code, foodCourtID string, at time.Time) (*model.Promotion, error) {
	var promotion model.Promotion
	err := r.db.WithContext(ctx).
		Where("coupon_code = ? AND status = ?", code, "active").
		Where("start_time <= ? AND end_time > ?", at, at).
		Where("(food_court_id IS NULL OR food_court_id = ?)", foodCourtID).
		First(&promotion).Error
	if err != nil {
		return nil, err
	}

	return &promotion, nil
}
