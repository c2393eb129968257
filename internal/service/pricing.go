package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"foodcourt-ordering/internal/apperr"
	"foodcourt-ordering/internal/model"
	"foodcourt-ordering/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// unitPrice is the dish price plus every customization modifier.
func unitPrice(price decimal.Decimal, customizations []model.Customization) decimal.Decimal {
	unit := price
	for _, c := range customizations {
		unit = unit.Add(c.PriceModifier)
	}
	return unit
}

type orderTotals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// computeTotals rounds tax half-up to cents; total = subtotal + tax - discount.
func computeTotals(subtotal, taxRate, discount decimal.Decimal) orderTotals {
	tax := subtotal.Mul(taxRate).Round(2)
	return orderTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal.Add(tax).Sub(discount),
	}
}

// DiscountResolver turns a coupon code into an amount off the subtotal.
type DiscountResolver interface {
	Resolve(ctx context.Context, code, foodCourtID string, subtotal decimal.Decimal) (decimal.Decimal, error)
}

type promotionResolver struct {
	foodCourtRepo repository.FoodCourtRepository
	now           func() time.Time
}

func NewPromotionResolver(foodCourtRepo repository.FoodCourtRepository) DiscountResolver {
	return &promotionResolver{foodCourtRepo: foodCourtRepo, now: time.Now}
}

func (r *promotionResolver) Resolve(ctx context.Context, code, foodCourtID string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	promotion, err := r.foodCourtRepo.FindPromotion(ctx, code, foodCourtID, r.now().UTC())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, apperr.Conflict(apperr.CodeConflict, "coupon is invalid or expired")
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("find promotion: %w", err)
	}

	var discount decimal.Decimal
	switch promotion.DiscountType {
	case model.DiscountPercentage:
		discount = subtotal.Mul(promotion.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
	case model.DiscountFixed:
		discount = promotion.DiscountValue
	default:
		return decimal.Zero, apperr.Conflict(apperr.CodeConflict, "coupon is invalid or expired")
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount, nil
}

// orderNumbers hands out PREFIX-YYYYMMDD-NNNNN starting from a random sequence.
// Uniqueness is enforced by the order_no index.
type orderNumbers struct {
	prefix  string
	counter atomic.Uint64
	now     func() time.Time
}

func newOrderNumbers(prefix string) *orderNumbers {
	n := &orderNumbers{prefix: prefix, now: time.Now}
	n.counter.Store(rand.Uint64N(100000))
	return n
}

func (n *orderNumbers) Next() string {
	seq := n.counter.Add(1) % 100000
	return fmt.Sprintf("%s-%s-%05d", n.prefix, n.now().UTC().Format("20060102"), seq)
}
