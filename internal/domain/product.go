package domain

import "github.com/shopspring/decimal"

// StockOperation selects the direction of a stock mutation.
type StockOperation string

const (
	StockIncrease StockOperation = "INCREASE"
	StockDecrease StockOperation = "DECREASE"
)

type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	AvailableStock int             `json:"available_stock"`
}
