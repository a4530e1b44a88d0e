package repository

import (
	"context"
	"errors"
	"time"

	"foodie/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateDate is returned by Create when a till record already exists
// for the date (unique index on cash_closings.date).
var ErrDuplicateDate = errors.New("cash closing already exists for date")

type CashClosingRepository interface {
	Create(ctx context.Context, c *model.CashClosing) error
	FindByDate(ctx context.Context, date time.Time) (*model.CashClosing, error)
	FindByDateForUpdate(ctx context.Context, tx *gorm.DB, date time.Time) (*model.CashClosing, error)
	// MarkClosed persists the reconciliation only if the record is still open.
	MarkClosed(ctx context.Context, tx *gorm.DB, c *model.CashClosing) (bool, error)
	ListClosed(ctx context.Context) ([]model.CashClosing, error)
	ListClosedInRange(ctx context.Context, start, end time.Time) ([]model.CashClosing, error)
	DB() *gorm.DB
}

type cashClosingRepo struct{ db *gorm.DB }

func NewCashClosingRepository(db *gorm.DB) CashClosingRepository {
	return &cashClosingRepo{db: db}
}

func (r *cashClosingRepo) DB() *gorm.DB { return r.db }

func (r *cashClosingRepo) Create(ctx context.Context, c *model.CashClosing) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateDate
	}
	return err
}

func (r *cashClosingRepo) FindByDate(ctx context.Context, date time.Time) (*model.CashClosing, error) {
	var c model.CashClosing
	err := r.db.WithContext(ctx).Where("date = ?", model.CalendarDate(date)).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrTillNotFound
	}
	return &c, err
}

func (r *cashClosingRepo) FindByDateForUpdate(ctx context.Context, tx *gorm.DB, date time.Time) (*model.CashClosing, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var c model.CashClosing
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("date = ?", model.CalendarDate(date)).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrTillNotFound
	}
	return &c, err
}

func (r *cashClosingRepo) MarkClosed(ctx context.Context, tx *gorm.DB, c *model.CashClosing) (bool, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	res := db.WithContext(ctx).Model(&model.CashClosing{}).
		Where("id = ? AND is_closed = ?", c.ID, false).
		Updates(map[string]any{
			"expected_amount": c.ExpectedAmount,
			"real_amount":     c.RealAmount,
			"difference":      c.Difference,
			"notes":           c.Notes,
			"is_closed":       true,
			"closed_at":       c.ClosedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *cashClosingRepo) ListClosed(ctx context.Context) ([]model.CashClosing, error) {
	var out []model.CashClosing
	err := r.db.WithContext(ctx).Where("is_closed = ?", true).Order("date DESC").Find(&out).Error
	return out, err
}

func (r *cashClosingRepo) ListClosedInRange(ctx context.Context, start, end time.Time) ([]model.CashClosing, error) {
	var out []model.CashClosing
	err := r.db.WithContext(ctx).
		Where("is_closed = ? AND date BETWEEN ? AND ?", true, model.CalendarDate(start), model.CalendarDate(end)).
		Order("date ASC").
		Find(&out).Error
	return out, err
}
