package repository

import (
	"context"
	"errors"
	"time"

	"foodie/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderQuery is the parsed form of an order listing filter. Nil fields are
// not filtered on.
type OrderQuery struct {
	Status *model.OrderStatus
	Start  *time.Time
	End    *time.Time
	UserID *uuid.UUID
	Page   int
	Limit  int
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// FindForUpdate loads the order row-locked inside tx.
	FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, q OrderQuery) ([]model.Order, int64, error)
	// UpdateStatus is a compare-and-swap: it reports false when the order is
	// no longer in status from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error)
	ReplaceItems(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []model.OrderItem) error
	// SumCompletedByMethod aggregates payment amounts of COMPLETED orders dated
	// date, grouped by payment method, in one statement.
	SumCompletedByMethod(ctx context.Context, tx *gorm.DB, date time.Time) (model.MethodAmounts, error)
	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *orderRepo) Create(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return r.conn(tx).WithContext(ctx).Omit("Payment").Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Preload("Payment").
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrOrderNotFound
	}
	return &o, err
}

func (r *orderRepo) FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	err = r.conn(tx).WithContext(ctx).
		Where("order_id = ?", id).Order("position ASC").
		Find(&o.Items).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, q OrderQuery) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Order{})
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Start != nil {
		db = db.Where("order_date >= ?", *q.Start)
	}
	if q.End != nil {
		db = db.Where("order_date <= ?", *q.End)
	}
	if q.UserID != nil {
		db = db.Where("user_id = ?", *q.UserID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if q.Limit > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		db = db.Offset((page - 1) * q.Limit).Limit(q.Limit)
	}

	err := db.Preload("Items", preloadItems).Preload("Payment").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepo) ReplaceItems(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []model.OrderItem) error {
	db := r.conn(tx).WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}

func (r *orderRepo) SumCompletedByMethod(ctx context.Context, tx *gorm.DB, date time.Time) (model.MethodAmounts, error) {
	var rows []struct {
		Method model.PaymentMethod
		Total  decimal.Decimal
	}
	err := r.conn(tx).WithContext(ctx).Raw(`
		SELECT p.method AS method, COALESCE(SUM(p.amount), 0) AS total
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE o.status = ? AND o.order_date = ?
		GROUP BY p.method`, model.OrderCompleted, model.CalendarDate(date)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := model.NewMethodAmounts()
	for _, row := range rows {
		if _, declared := out[row.Method]; declared {
			out[row.Method] = row.Total
		}
	}
	return out, nil
}
