package repository

import (
	"context"
	"time"

	"foodcourt-ordering/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderFilter struct {
	UserID string
	Status string
	Page   int
	Limit  int
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	FindByRef(ctx context.Context, tx *gorm.DB, ref string) (*model.Order, error)
	// LockByRef loads an order by id or order number for update.
	LockByRef(ctx context.Context, tx *gorm.DB, ref string) (*model.Order, error)
	FindByIdempotencyKey(ctx context.Context, owner model.Owner, key string, since time.Time) (*model.Order, error)
	// ReleaseIdempotencyKey clears key from the owner's orders created before cutoff.
	ReleaseIdempotencyKey(ctx context.Context, tx *gorm.DB, owner model.Owner, key string, cutoff time.Time) error
	List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error)
	GetOrderItems(ctx context.Context, tx *gorm.DB, orderID string) ([]*model.OrderItem, error)
	// Transition applies updates only while the order still satisfies where;
	// it reports whether the row was changed.
	Transition(ctx context.Context, tx *gorm.DB, orderID string, where map[string]interface{}, updates map[string]interface{}) (bool, error)
	UpdateItemsStatus(ctx context.Context, tx *gorm.DB, orderID string, from []model.ItemStatus, to model.ItemStatus) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := conn(r.db, tx).WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByRef(ctx context.Context, tx *gorm.DB, ref string) (*model.Order, error) {
	var order model.Order
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ? OR order_no = ?", ref, ref).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) LockByRef(ctx context.Context, tx *gorm.DB, ref string) (*model.Order, error) {
	var order model.Order
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? OR order_no = ?", ref, ref).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByIdempotencyKey(ctx context.Context, owner model.Owner, key string, since time.Time) (*model.Order, error) {
	q, ok := keyedBy(r.db.WithContext(ctx), owner, key)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	var order model.Order
	if err := q.Where("created_at >= ?", since).First(&order).Error; err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) ReleaseIdempotencyKey(ctx context.Context, tx *gorm.DB, owner model.Owner, key string, cutoff time.Time) error {
	q, ok := keyedBy(conn(r.db, tx).WithContext(ctx).Model(&model.Order{}), owner, key)
	if !ok {
		return nil
	}

	return q.Where("created_at < ?", cutoff).
		Update("idempotency_key", nil).Error
}

// keyedBy narrows q to the owner's orders carrying an idempotency key.
func keyedBy(q *gorm.DB, owner model.Owner, key string) (*gorm.DB, bool) {
	userID, sessionID := owner.OrderOwner()

	q = q.Where("idempotency_key = ?", key)
	switch {
	case userID != nil:
		return q.Where("user_id = ?", *userID), true
	case sessionID != nil:
		return q.Where("guest_session_id = ?", *sessionID), true
	default:
		return q, false
	}
}

func (r *orderRepoImpl) List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", filter.UserID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := q.Order("created_at DESC").
		Scopes(paginate(filter.Page, filter.Limit)).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, tx *gorm.DB, orderID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := conn(r.db, tx).WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) Transition(ctx context.Context, tx *gorm.DB, orderID string, where map[string]interface{}, updates map[string]interface{}) (bool, error) {
	q := conn(r.db, tx).WithContext(ctx).Model(&model.Order{}).Where("id = ?", orderID)
	for column, value := range where {
		q = q.Where(column, value)
	}

	updates["updated_at"] = time.Now().UTC()
	result := q.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) UpdateItemsStatus(ctx context.Context, tx *gorm.DB, orderID string, from []model.ItemStatus, to model.ItemStatus) error {
	updates := map[string]interface{}{"status": to}
	if to == model.ItemCancelled {
		updates["cancelled_at"] = time.Now().UTC()
	}

	return conn(r.db, tx).WithContext(ctx).
		Model(&model.OrderItem{}).
		Where("order_id = ? AND status IN ?", orderID, from).
		Updates(updates).Error
}
