package repository

import (
	"context"
	"time"

	"foodcourt-ordering/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	FindByID(ctx context.Context, paymentID string) (*model.Payment, error)
	FindActiveByOrder(ctx context.Context, tx *gorm.DB, orderID string) (*model.Payment, error)
	// UpdateStatus moves a payment out of one of the from statuses; false when none matched.
	UpdateStatus(ctx context.Context, tx *gorm.DB, paymentID string, from []model.PaymentStatus, to model.PaymentStatus, transactionID string) (bool, error)
	MarkOrderPaymentsRefunded(ctx context.Context, tx *gorm.DB, orderID string) error
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return conn(r.db, tx).WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindByID(ctx context.Context, paymentID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("id = ?", paymentID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindActiveByOrder(ctx context.Context, tx *gorm.DB, orderID string) (*model.Payment, error) {
	var payment model.Payment
	err := conn(r.db, tx).WithContext(ctx).
		Where("order_id = ? AND status IN ?", orderID, []model.PaymentStatus{model.PaymentPending, model.PaymentProcessing, model.PaymentPaid}).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, paymentID string, from []model.PaymentStatus, to model.PaymentStatus, transactionID string) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}

	result := conn(r.db, tx).WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status IN ?", paymentID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *paymentRepoImpl) MarkOrderPaymentsRefunded(ctx context.Context, tx *gorm.DB, orderID string) error {
	return conn(r.db, tx).WithContext(ctx).Model(&model.Payment{}).
		Where("order_id = ? AND status = ?", orderID, model.PaymentPaid).
		Updates(map[string]interface{}{
			"status":     model.PaymentRefunded,
			"updated_at": time.Now().UTC(),
		}).Error
}
