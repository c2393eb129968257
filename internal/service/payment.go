package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"foodcourt-ordering/internal/apperr"
	"foodcourt-ordering/internal/config"
	"foodcourt-ordering/internal/dto"
	"foodcourt-ordering/internal/model"
	"foodcourt-ordering/internal/payment"
	"foodcourt-ordering/internal/repository"

	"gorm.io/gorm"
)

type PaymentService interface {
	// Create opens a payment for an order; actor is nil for the unauthenticated route.
	Create(ctx context.Context, actor *model.Actor, req *dto.CreatePaymentRequest) (*dto.PaymentResponse, error)
	Status(ctx context.Context, paymentID, provider string) (*dto.PaymentStatusResponse, error)
	// Capture finishes a buyer-approved checkout for gateways that capture explicitly.
	Capture(ctx context.Context, provider, paymentID string) (*dto.PaymentStatusResponse, error)
}

type paymentServiceImpl struct {
	db          *gorm.DB
	cfg         config.Payment
	registry    *payment.Registry
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	log         *slog.Logger
}

func NewPaymentService(
	db *gorm.DB,
	cfg config.Payment,
	registry *payment.Registry,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	logger *slog.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:          db,
		cfg:         cfg,
		registry:    registry,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		log:         logger.With("component", "payment"),
	}
}

func (s *paymentServiceImpl) Create(ctx context.Context, actor *model.Actor, req *dto.CreatePaymentRequest) (*dto.PaymentResponse, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = "mock"
	}
	provider, err := s.registry.Get(providerName)
	if err != nil {
		return nil, apperr.Validation("provider not configured").WithDetails(map[string]interface{}{"provider": providerName})
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.cfg.Currency
	}

	var record *model.Payment
	var reused bool

	// the order row stays locked until the record is stored, so one order
	// never ends up with two active payments
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.LockByRef(ctx, tx, req.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("order not found")
		}
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}
		if actor != nil && !actor.CanAccess(order) {
			return apperr.NotFound("order not found")
		}
		if order.Status == model.OrderCancelled {
			return apperr.NotFound("order not found or cancelled")
		}
		if order.PaymentStatus == model.PaymentPaid || order.PaymentStatus == model.PaymentRefunded {
			return apperr.Conflict(apperr.CodeAlreadyPaid, "order already paid")
		}
		if req.Amount != nil && !req.Amount.Equal(order.TotalAmount) {
			return apperr.Validation("amount does not match order total")
		}

		active, err := s.paymentRepo.FindActiveByOrder(ctx, tx, order.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find active payment: %w", err)
		}
		if active != nil {
			if active.Provider != provider.Name() {
				return apperr.Conflict(apperr.CodeConflict, "order has an active payment with another provider").
					WithDetails(map[string]interface{}{"payment_id": active.ID, "provider": active.Provider})
			}
			record, reused = active, true
			return nil
		}

		result, err := provider.CreatePayment(ctx, payment.PaymentRequest{
			OrderID:     order.ID,
			OrderNo:     order.OrderNo,
			Amount:      order.TotalAmount,
			Currency:    currency,
			Description: "Order " + order.OrderNo,
			ReturnURL:   req.ReturnURL,
			Metadata:    req.Metadata,
		})
		if errors.Is(err, payment.ErrInvalidRequest) {
			return apperr.Validation(err.Error())
		}
		if errors.Is(err, payment.ErrProviderNotConfigured) {
			return apperr.Validation("provider not configured").WithDetails(map[string]interface{}{"provider": providerName})
		}
		if err != nil {
			s.log.Error("provider create payment failed", "provider", provider.Name(), "order_id", order.ID, "error", err)
			return apperr.Upstream(err, "payment provider request failed")
		}

		record = &model.Payment{
			ID:          result.PaymentID,
			Provider:    provider.Name(),
			OrderID:     order.ID,
			Amount:      order.TotalAmount,
			Currency:    currency,
			Status:      paymentStatus(result.Status),
			CheckoutURL: result.CheckoutURL,
		}
		if result.TransactionID != "" {
			record.TransactionID = &result.TransactionID
		}
		if err := s.paymentRepo.Create(ctx, tx, record); err != nil {
			return fmt.Errorf("store payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !reused {
		s.log.Info("payment created", "provider", record.Provider, "payment_id", record.ID, "order_id", record.OrderID, "amount", record.Amount.StringFixed(2))
	}
	return paymentResponse(record), nil
}

func (s *paymentServiceImpl) Status(ctx context.Context, paymentID, providerName string) (*dto.PaymentStatusResponse, error) {
	if providerName == "" {
		if record, err := s.paymentRepo.FindByID(ctx, paymentID); err == nil {
			providerName = record.Provider
		} else {
			providerName = "mock"
		}
	}

	provider, err := s.registry.Get(providerName)
	if err != nil {
		return nil, apperr.Validation("provider not configured").WithDetails(map[string]interface{}{"provider": providerName})
	}

	status, err := provider.GetStatus(ctx, paymentID)
	if errors.Is(err, payment.ErrProviderNotConfigured) {
		return nil, apperr.Validation("provider not configured").WithDetails(map[string]interface{}{"provider": providerName})
	}
	if err != nil {
		s.log.Error("provider status lookup failed", "provider", provider.Name(), "payment_id", paymentID, "error", err)
		return nil, apperr.Upstream(err, "payment provider request failed")
	}

	return &dto.PaymentStatusResponse{
		PaymentID: paymentID,
		Provider:  provider.Name(),
		Status:    string(status),
	}, nil
}

func paymentResponse(p *model.Payment) *dto.PaymentResponse {
	return &dto.PaymentResponse{
		PaymentID:   p.ID,
		Provider:    p.Provider,
		OrderID:     p.OrderID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Status:      p.Status,
		CheckoutURL: p.CheckoutURL,
	}
}

// paymentStatus narrows a provider status onto the stored payment states.
func paymentStatus(status payment.Status) model.PaymentStatus {
	switch status {
	case payment.StatusPaid:
		return model.PaymentPaid
	case payment.StatusFailed:
		return model.PaymentFailed
	case payment.StatusProcessing:
		return model.PaymentProcessing
	case payment.StatusRefunded:
		return model.PaymentRefunded
	default:
		return model.PaymentPending
	}
}

func (s *paymentServiceImpl) Capture(ctx context.Context, providerName, paymentID string) (*dto.PaymentStatusResponse, error) {
	provider, err := s.registry.Get(providerName)
	if err != nil {
		return nil, apperr.Validation("provider not configured").WithDetails(map[string]interface{}{"provider": providerName})
	}
	capturer, ok := provider.(payment.Capturer)
	if !ok {
		return nil, apperr.Validation("provider does not capture payments")
	}

	record, err := s.paymentRepo.FindByID(ctx, paymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && record.Provider != provider.Name()) {
		return nil, apperr.NotFound("payment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}

	status, err := capturer.Capture(ctx, paymentID)
	if err != nil {
		s.log.Error("provider capture failed", "provider", provider.Name(), "payment_id", paymentID, "error", err)
		return nil, apperr.Upstream(err, "payment provider request failed")
	}

	// the order itself settles when the capture webhook arrives
	if status == payment.StatusPaid || status == payment.StatusProcessing {
		from := []model.PaymentStatus{model.PaymentPending}
		if _, err := s.paymentRepo.UpdateStatus(ctx, nil, paymentID, from, model.PaymentProcessing, ""); err != nil {
			return nil, fmt.Errorf("update payment: %w", err)
		}
	}

	s.log.Info("payment captured", "provider", provider.Name(), "payment_id", paymentID, "order_id", record.OrderID, "status", status)
	return &dto.PaymentStatusResponse{
		PaymentID: paymentID,
		Provider:  provider.Name(),
		Status:    string(status),
	}, nil
}
