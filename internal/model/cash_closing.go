package model

import (
	"time"

	"github.com/google/uuid"
)

// CashClosing is the till record of one calendar date. It is created open
// with the per-method opening balance and becomes immutable once closed.
//
//	expected[m]   = opening[m] + sales[m]
//	difference[m] = real[m] - expected[m]
type CashClosing struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Date           time.Time     `gorm:"type:date;not null;uniqueIndex"`
	OpeningBalance MethodAmounts `gorm:"type:jsonb;not null"`
	ExpectedAmount MethodAmounts `gorm:"type:jsonb;not null"`
	RealAmount     MethodAmounts `gorm:"type:jsonb;not null"`
	Difference     MethodAmounts `gorm:"type:jsonb;not null"`
	Notes          string        `gorm:"type:text"`
	IsClosed       bool          `gorm:"not null;default:false;index"`
	OpenedAt       time.Time
	ClosedAt       *time.Time
}

func (CashClosing) TableName() string { return "cash_closings" }

// OpenCashClosing builds the open record for date. Missing methods in opening
// default to zero; the computed maps stay empty until close.
func OpenCashClosing(date time.Time, opening MethodAmounts, now time.Time) *CashClosing {
	return &CashClosing{
		ID:             uuid.New(),
		Date:           CalendarDate(date),
		OpeningBalance: opening.Complete(),
		ExpectedAmount: MethodAmounts{},
		RealAmount:     MethodAmounts{},
		Difference:     MethodAmounts{},
		OpenedAt:       now,
	}
}

// Close reconciles the record against the day's sales and the declared real
// amounts. Every declared method gets an entry in all three maps.
func (c *CashClosing) Close(sales, declared MethodAmounts, notes string, now time.Time) error {
	if c.IsClosed {
		return ErrTillAlreadyClosed
	}
	expected := NewMethodAmounts()
	counted := NewMethodAmounts()
	diff := NewMethodAmounts()
	for _, pm := range paymentMethods {
		expected[pm] = c.OpeningBalance.Get(pm).Add(sales.Get(pm))
		counted[pm] = declared.Get(pm)
		diff[pm] = counted[pm].Sub(expected[pm])
	}
	c.ExpectedAmount = expected
	c.RealAmount = counted
	c.Difference = diff
	c.Notes = notes
	c.IsClosed = true
	c.ClosedAt = &now
	return nil
}
