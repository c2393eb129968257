package repository

import (
	"context"
	"time"

	"foodcourt-ordering/internal/model"

	"gorm.io/gorm"
)

type WebhookLogRepository interface {
	Create(ctx context.Context, entry *model.WebhookLog) error
	FindByID(ctx context.Context, id uint) (*model.WebhookLog, error)
	List(ctx context.Context, status string, limit int) ([]*model.WebhookLog, error)
	MarkRetrying(ctx context.Context, id uint) error
}

type webhookLogRepositoryImpl struct {
	db *gorm.DB
}

func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepositoryImpl{db: db}
}

func (r *webhookLogRepositoryImpl) Create(ctx context.Context, entry *model.WebhookLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *webhookLogRepositoryImpl) FindByID(ctx context.Context, id uint) (*model.WebhookLog, error) {
	var entry model.WebhookLog
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *webhookLogRepositoryImpl) List(ctx context.Context, status string, limit int) ([]*model.WebhookLog, error) {
	q := r.db.WithContext(ctx).Model(&model.WebhookLog{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var entries []*model.WebhookLog
	if err := q.Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *webhookLogRepositoryImpl) MarkRetrying(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&model.WebhookLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count":   gorm.Expr("retry_count + 1"),
			"last_retry_at": time.Now().UTC(),
			"status":        model.WebhookRetrying,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
