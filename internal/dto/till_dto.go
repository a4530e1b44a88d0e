package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// Amount maps are keyed by payment method (CASH, CARD, BIZUM, PAYPAL).
// Missing methods count as zero.

type OpenTillRequest struct {
	OpeningBalance map[string]decimal.Decimal `json:"opening_balance"`
}

type CloseTillRequest struct {
	RealAmount map[string]decimal.Decimal `json:"real_amount"`
	Notes      string                     `json:"notes" validate:"max=1000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TillResponse struct {
	ID             string                     `json:"id"`
	Date           string                     `json:"date"`
	OpeningBalance map[string]decimal.Decimal `json:"opening_balance"`
	ExpectedAmount map[string]decimal.Decimal `json:"expected_amount"`
	RealAmount     map[string]decimal.Decimal `json:"real_amount"`
	Difference     map[string]decimal.Decimal `json:"difference"`
	Notes          string                     `json:"notes,omitempty"`
	IsClosed       bool                       `json:"is_closed"`
	OpenedAt       time.Time                  `json:"opened_at"`
	ClosedAt       *time.Time                 `json:"closed_at,omitempty"`
}

type SalesResponse struct {
	Date  string                     `json:"date"`
	Sales map[string]decimal.Decimal `json:"sales"`
	Total decimal.Decimal            `json:"total"`
}
