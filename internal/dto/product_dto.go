package dto

import "github.com/shopspring/decimal"

// ProductResponse is the public price check view of a catalog entry.
type ProductResponse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}
