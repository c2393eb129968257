package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"foodcourt-ordering/internal/apperr"
	"foodcourt-ordering/internal/dto"
	"foodcourt-ordering/internal/model"
	"foodcourt-ordering/internal/repository"

	"gorm.io/gorm"
)

// InventoryService is the only writer of dish stock and sold counts.
// Every mutation appends a dish inventory log row in the same transaction.
type InventoryService interface {
	IncreaseSold(ctx context.Context, tx *gorm.DB, dishID string, qty int, orderID string) (*repository.StockChange, error)
	DecreaseSold(ctx context.Context, tx *gorm.DB, dishID string, qty int, orderID string, logType model.InventoryLogType) (*repository.StockChange, error)
	// ReverseOrder gives back the stock of every item that still references a dish.
	ReverseOrder(ctx context.Context, tx *gorm.DB, orderID string, items []*model.OrderItem, logType model.InventoryLogType) error
	AdjustStock(ctx context.Context, dishID string, req *dto.StockRequest) (*dto.StockResponse, error)
	ListLogs(ctx context.Context, dishID string, limit int) ([]*model.InventoryLog, error)
}

type inventoryServiceImpl struct {
	db            *gorm.DB
	inventoryRepo repository.InventoryRepository
	dishRepo      repository.DishRepository
	log           *slog.Logger
}

func NewInventoryService(
	db *gorm.DB,
	inventoryRepo repository.InventoryRepository,
	dishRepo repository.DishRepository,
	logger *slog.Logger,
) InventoryService {
	return &inventoryServiceImpl{
		db:            db,
		inventoryRepo: inventoryRepo,
		dishRepo:      dishRepo,
		log:           logger.With("component", "inventory"),
	}
}

func (s *inventoryServiceImpl) IncreaseSold(ctx context.Context, tx *gorm.DB, dishID string, qty int, orderID string) (*repository.StockChange, error) {
	change, err := s.inventoryRepo.Reserve(ctx, tx, dishID, qty)
	if errors.Is(err, repository.ErrInsufficientStock) {
		return nil, apperr.Conflict(apperr.CodeSoldOut, "insufficient stock").WithDetails(map[string]interface{}{"dish_id": dishID})
	}
	if err != nil {
		return nil, fmt.Errorf("reserve stock: %w", err)
	}

	if err := s.appendLog(ctx, tx, change, model.InventorySale, &orderID, nil); err != nil {
		return nil, err
	}
	return change, nil
}

func (s *inventoryServiceImpl) DecreaseSold(ctx context.Context, tx *gorm.DB, dishID string, qty int, orderID string, logType model.InventoryLogType) (*repository.StockChange, error) {
	change, err := s.inventoryRepo.Release(ctx, tx, dishID, qty)
	if err != nil {
		return nil, fmt.Errorf("release stock: %w", err)
	}

	if err := s.appendLog(ctx, tx, change, logType, &orderID, nil); err != nil {
		return nil, err
	}
	return change, nil
}

func (s *inventoryServiceImpl) ReverseOrder(ctx context.Context, tx *gorm.DB, orderID string, items []*model.OrderItem, logType model.InventoryLogType) error {
	for _, item := range items {
		if item.DishID == nil {
			continue
		}

		_, err := s.DecreaseSold(ctx, tx, *item.DishID, item.Quantity, orderID, logType)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// dish row purged since the order was placed
			s.log.Warn("skip stock reversal for missing dish", "order_id", orderID, "dish_id", *item.DishID)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *inventoryServiceImpl) AdjustStock(ctx context.Context, dishID string, req *dto.StockRequest) (*dto.StockResponse, error) {
	var resp *dto.StockResponse

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dish, err := s.inventoryRepo.LockDish(ctx, tx, dishID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("dish not found")
		}
		if err != nil {
			return fmt.Errorf("lock dish: %w", err)
		}

		prev := dish.RemainingStock
		next, addedToTotal, err := nextStock(prev, req)
		if err != nil {
			return err
		}

		restocked := req.Action == model.InventoryRestock
		if err := s.inventoryRepo.SetStock(ctx, tx, dish, next, addedToTotal, restocked); err != nil {
			return fmt.Errorf("set stock: %w", err)
		}

		change := &repository.StockChange{DishID: dishID, PreviousStock: prev, NewStock: next}
		var note *string
		if req.Reason != "" {
			note = &req.Reason
		}
		if err := s.appendLog(ctx, tx, change, req.Action, nil, note); err != nil {
			return err
		}

		resp = &dto.StockResponse{DishID: dishID, PreviousStock: prev, NewStock: next}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("stock adjusted", "dish_id", dishID, "action", req.Action, "previous_stock", resp.PreviousStock, "new_stock", resp.NewStock)
	return resp, nil
}

func nextStock(prev int, req *dto.StockRequest) (int, int, error) {
	switch req.Action {
	case model.InventoryRestock:
		if req.Quantity <= 0 {
			return 0, 0, apperr.Validation("restock quantity must be positive")
		}
		return prev + req.Quantity, req.Quantity, nil
	case model.InventoryAdjust:
		if req.Quantity == 0 {
			return 0, 0, apperr.Validation("adjust quantity must not be zero")
		}
		if prev+req.Quantity < 0 {
			return 0, 0, apperr.Validation("stock cannot go negative")
		}
		return prev + req.Quantity, 0, nil
	case model.InventorySet:
		if req.Quantity < 0 {
			return 0, 0, apperr.Validation("stock cannot go negative")
		}
		return req.Quantity, 0, nil
	default:
		return 0, 0, apperr.Validation("invalid action")
	}
}

func (s *inventoryServiceImpl) ListLogs(ctx context.Context, dishID string, limit int) ([]*model.InventoryLog, error) {
	if _, err := s.dishRepo.FindByID(ctx, nil, dishID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("dish not found")
		}
		return nil, fmt.Errorf("find dish: %w", err)
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.inventoryRepo.ListLogs(ctx, dishID, limit)
}

func (s *inventoryServiceImpl) appendLog(ctx context.Context, tx *gorm.DB, change *repository.StockChange, logType model.InventoryLogType, orderID, note *string) error {
	err := s.inventoryRepo.AppendLog(ctx, tx, &model.InventoryLog{
		DishID:         change.DishID,
		LogType:        logType,
		ChangeQuantity: change.NewStock - change.PreviousStock,
		PreviousStock:  change.PreviousStock,
		NewStock:       change.NewStock,
		OrderID:        orderID,
		Note:           note,
	})
	if err != nil {
		return fmt.Errorf("append inventory log: %w", err)
	}
	return nil
}
