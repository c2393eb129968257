package repository

import (
	"context"
	"time"

	"foodcourt-ordering/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DishView is a dish joined with the stall that sells it.
type DishView struct {
	model.Dish
	StallName   string
	FoodCourtID string
}

type DishRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, tx *gorm.DB, dishID string) (*model.Dish, error)
	FindView(ctx context.Context, tx *gorm.DB, dishID string) (*DishView, error)
	FindViews(ctx context.Context, dishIDs []string) (map[string]*DishView, error)
}

type dishRepoImpl struct {
	db *gorm.DB
}

func NewDishRepository(db *gorm.DB) DishRepository {
	return &dishRepoImpl{
		db: db,
	}
}

// Seed installs a demo food court; safe to run on every start.
func (r *dishRepoImpl) Seed(ctx context.Context) error {
	now := time.Now().UTC()
	foodCourt := model.FoodCourt{ID: "8d0c6a9e-3a57-4c1e-9a4e-0f4f3b6c2a10", Name: "Lau Pa Sat", Currency: "MYR", TaxRate: decimal.RequireFromString("0.06"), Status: "active"}
	stalls := []model.Stall{
		{ID: "5b1f2c44-8e0d-4f4a-b1a1-7d1f8f1e2a01", FoodCourtID: foodCourt.ID, Name: "Hainanese Chicken Rice", Status: "active"},
		{ID: "5b1f2c44-8e0d-4f4a-b1a1-7d1f8f1e2a02", FoodCourtID: foodCourt.ID, Name: "Char Kway Teow", Status: "active"},
	}
	dishes := []model.Dish{
		{ID: "c7a3e1d0-1111-4a2b-9c3d-000000000001", StallID: stalls[0].ID, Name: "海南鸡饭", NameEN: "Chicken Rice", Price: decimal.RequireFromString("5.00"), IsAvailable: true, MaxPerOrder: 10, Status: "active"},
		{ID: "c7a3e1d0-1111-4a2b-9c3d-000000000002", StallID: stalls[0].ID, Name: "烧鸡饭", NameEN: "Roasted Chicken Rice", Price: decimal.RequireFromString("5.50"), IsAvailable: true, HasInventory: true, TotalStock: 30, RemainingStock: 30, Status: "active"},
		{ID: "c7a3e1d0-1111-4a2b-9c3d-000000000003", StallID: stalls[1].ID, Name: "炒粿条", NameEN: "Char Kway Teow", Price: decimal.RequireFromString("3.00"), IsAvailable: true, Status: "active", LastRestockAt: &now},
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&foodCourt).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&stalls).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&dishes).Error
	})
}

func (r *dishRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, dishID string) (*model.Dish, error) {
	var dish model.Dish
	err := conn(r.db, tx).WithContext(ctx).
		Scopes(notDeleted).
		Where("id = ?", dishID).
		First(&dish).Error

	if err != nil {
		return nil, err
	}

	return &dish, nil
}

func (r *dishRepoImpl) viewQuery(db *gorm.DB) *gorm.DB {
	return db.Table("dishes AS d").
		Select("d.*, s.name AS stall_name, s.food_court_id AS food_court_id").
		Joins("JOIN stalls AS s ON s.id = d.stall_id").
		Where("d.deleted_at IS NULL")
}

func (r *dishRepoImpl) FindView(ctx context.Context, tx *gorm.DB, dishID string) (*DishView, error) {
	var views []*DishView
	err := r.viewQuery(conn(r.db, tx).WithContext(ctx)).
		Where("d.id = ?", dishID).
		Limit(1).
		Scan(&views).Error

	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return views[0], nil
}

func (r *dishRepoImpl) FindViews(ctx context.Context, dishIDs []string) (map[string]*DishView, error) {
	var views []*DishView
	err := r.viewQuery(r.db.WithContext(ctx)).
		Where("d.id IN ?", dishIDs).
		Scan(&views).Error

	if err != nil {
		return nil, err
	}

	byID := make(map[string]*DishView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}

	return byID, nil
}
