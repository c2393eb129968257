package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"foodcourt-ordering/internal/apperr"
	"foodcourt-ordering/internal/config"
	"foodcourt-ordering/internal/dto"
	"foodcourt-ordering/internal/model"
	"foodcourt-ordering/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// defaultLineLimit caps a cart line when the dish has no per-order limit.
const defaultLineLimit = 99

type CartService interface {
	Get(ctx context.Context, owner model.Owner, lang string) (*dto.CartResponse, error)
	AddItem(ctx context.Context, owner model.Owner, lang string, item *dto.Item) (*model.CartLine, error)
	// AddBatch adds what it can and reports the rest per item.
	AddBatch(ctx context.Context, owner model.Owner, lang string, items []*dto.Item) *dto.BatchAddResponse
	UpdateQuantity(ctx context.Context, owner model.Owner, lineID string, quantity int) (*model.CartLine, error)
	RemoveItem(ctx context.Context, owner model.Owner, lineID string) error
	Clear(ctx context.Context, owner model.Owner) error
}

type cartServiceImpl struct {
	cfg      config.Cart
	cartRepo repository.CartRepository
	dishRepo repository.DishRepository
	log      *slog.Logger
	now      func() time.Time
}

func NewCartService(
	cfg config.Cart,
	cartRepo repository.CartRepository,
	dishRepo repository.DishRepository,
	logger *slog.Logger,
) CartService {
	return &cartServiceImpl{
		cfg:      cfg,
		cartRepo: cartRepo,
		dishRepo: dishRepo,
		log:      logger.With("component", "cart"),
		now:      time.Now,
	}
}

func (s *cartServiceImpl) Get(ctx context.Context, owner model.Owner, lang string) (*dto.CartResponse, error) {
	lines, err := s.cartRepo.ListActive(ctx, nil, owner, "", nil, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}

	dishIDs := make([]string, len(lines))
	for i, l := range lines {
		dishIDs[i] = l.DishID
	}
	views := map[string]*repository.DishView{}
	if len(dishIDs) > 0 {
		if views, err = s.dishRepo.FindViews(ctx, dishIDs); err != nil {
			return nil, fmt.Errorf("find cart dishes: %w", err)
		}
	}

	resp := &dto.CartResponse{Groups: []*dto.StallGroup{}, Subtotal: decimal.Zero}
	groups := map[string]*dto.StallGroup{}
	for _, l := range lines {
		view, ok := views[l.DishID]
		if !ok {
			// dish removed from the menu; the line stays in the cart but is not billable
			continue
		}

		unit := unitPrice(view.Price, l.Customizations)
		subtotal := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))

		group, ok := groups[view.StallID]
		if !ok {
			group = &dto.StallGroup{StallID: view.StallID, StallName: view.StallName, Subtotal: decimal.Zero}
			groups[view.StallID] = group
			resp.Groups = append(resp.Groups, group)
		}
		group.Items = append(group.Items, &dto.CartItem{
			ID:             l.ID,
			DishID:         l.DishID,
			DishName:       view.DisplayName(lang),
			DishImage:      view.ImageURL,
			DishPrice:      view.Price,
			DishAvailable:  view.IsAvailable,
			DishSoldOut:    view.IsSoldOut,
			Quantity:       l.Quantity,
			Customizations: l.Customizations,
			UnitPrice:      unit,
			Subtotal:       subtotal,
		})
		group.Subtotal = group.Subtotal.Add(subtotal)
		resp.ItemCount += l.Quantity
		resp.Subtotal = resp.Subtotal.Add(subtotal)
	}
	resp.Total = resp.Subtotal

	return resp, nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, owner model.Owner, lang string, item *dto.Item) (*model.CartLine, error) {
	if owner.Empty() {
		return nil, apperr.Unauthorized(apperr.CodeUnauthenticated, "login or guest session required")
	}
	if item.Quantity < 1 {
		return nil, apperr.Validation("quantity must be positive")
	}

	view, err := s.dishRepo.FindView(ctx, nil, item.DishID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("dish not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find dish: %w", err)
	}
	if !view.Orderable() {
		return nil, apperr.Conflict(apperr.CodeSoldOut, "dish sold out or unavailable")
	}

	limit := lineLimit(&view.Dish)
	now := s.now().UTC()
	key := customizationKey(item.Customizations)

	existing, err := s.cartRepo.FindMergeable(ctx, owner, item.DishID, key, now)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find cart line: %w", err)
	}
	if existing != nil {
		quantity := existing.Quantity + item.Quantity
		if quantity > limit {
			return nil, apperr.Conflict(apperr.CodeLimitExceeded, fmt.Sprintf("maximum %d per order", limit))
		}
		if _, err := s.cartRepo.UpdateQuantity(ctx, owner, existing.ID, quantity); err != nil {
			return nil, fmt.Errorf("update cart line: %w", err)
		}
		existing.Quantity = quantity
		return existing, nil
	}

	if item.Quantity > limit {
		return nil, apperr.Conflict(apperr.CodeLimitExceeded, fmt.Sprintf("maximum %d per order", limit))
	}
	count, err := s.cartRepo.CountActive(ctx, owner, now)
	if err != nil {
		return nil, fmt.Errorf("count cart lines: %w", err)
	}
	if count >= int64(s.cfg.MaxItems) {
		return nil, apperr.Conflict(apperr.CodeLimitExceeded, fmt.Sprintf("cart holds at most %d items", s.cfg.MaxItems))
	}

	line := &model.CartLine{
		ID:               uuid.NewString(),
		FoodCourtID:      view.FoodCourtID,
		DishID:           view.ID,
		Quantity:         item.Quantity,
		Customizations:   item.Customizations,
		CustomizationKey: key,
		DishSnapshot: model.DishSnapshot{
			Name:     view.DisplayName(lang),
			ImageURL: view.ImageURL,
			Price:    view.Price,
		},
		Status:    model.CartActive,
		ExpiresAt: now.Add(s.cfg.TTL),
	}
	if owner.UserID != "" {
		line.UserID = &owner.UserID
	}
	if owner.SessionID != "" {
		line.SessionID = &owner.SessionID
	}

	if err := s.cartRepo.Create(ctx, line); err != nil {
		return nil, fmt.Errorf("store cart line: %w", err)
	}
	return line, nil
}

func (s *cartServiceImpl) AddBatch(ctx context.Context, owner model.Owner, lang string, items []*dto.Item) *dto.BatchAddResponse {
	resp := &dto.BatchAddResponse{Added: []*model.CartLine{}, Errors: []*dto.BatchAddError{}}

	for i, item := range items {
		line, err := s.AddItem(ctx, owner, lang, item)
		if err != nil {
			batchErr := &dto.BatchAddError{Index: i, DishID: item.DishID, Code: apperr.CodeInternal, Message: "failed to add"}
			if appErr, ok := apperr.As(err); ok && appErr.Kind != apperr.KindInternal {
				batchErr.Code, batchErr.Message = appErr.Code, appErr.Message
			} else {
				s.log.Error("batch add failed", "dish_id", item.DishID, "error", err)
			}
			resp.Errors = append(resp.Errors, batchErr)
			continue
		}
		resp.Added = append(resp.Added, line)
	}

	resp.TotalAdded = len(resp.Added)
	return resp
}

func (s *cartServiceImpl) UpdateQuantity(ctx context.Context, owner model.Owner, lineID string, quantity int) (*model.CartLine, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be positive")
	}

	line, err := s.cartRepo.FindActive(ctx, owner, lineID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("cart item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find cart line: %w", err)
	}

	limit := defaultLineLimit
	if dish, err := s.dishRepo.FindByID(ctx, nil, line.DishID); err == nil {
		limit = lineLimit(dish)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find dish: %w", err)
	}
	if quantity > limit {
		return nil, apperr.Conflict(apperr.CodeLimitExceeded, fmt.Sprintf("maximum %d per order", limit))
	}

	updated, err := s.cartRepo.UpdateQuantity(ctx, owner, lineID, quantity)
	if err != nil {
		return nil, fmt.Errorf("update cart line: %w", err)
	}
	if !updated {
		return nil, apperr.NotFound("cart item not found")
	}

	line.Quantity = quantity
	return line, nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, owner model.Owner, lineID string) error {
	if _, err := s.cartRepo.FindActive(ctx, owner, lineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("cart item not found")
		}
		return fmt.Errorf("find cart line: %w", err)
	}
	return s.cartRepo.SoftDelete(ctx, owner, lineID)
}

func (s *cartServiceImpl) Clear(ctx context.Context, owner model.Owner) error {
	return s.cartRepo.Clear(ctx, owner)
}

func lineLimit(dish *model.Dish) int {
	if dish.MaxPerOrder > 0 {
		return dish.MaxPerOrder
	}
	return defaultLineLimit
}

// customizationKey is an order-independent form of a selection so identical
// choices merge into one cart line.
func customizationKey(customizations []model.Customization) string {
	if len(customizations) == 0 {
		return ""
	}

	parts := make([]string, len(customizations))
	for i, c := range customizations {
		parts[i] = c.Group + "\x1f" + c.Option + "\x1f" + c.PriceModifier.String()
	}
	sort.Strings(parts)

	b, _ := json.Marshal(parts)
	return string(b)
}
