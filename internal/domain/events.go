package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is published after an order survives the placement flow
// with status PENDING.
type OrderPlacedEvent struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderLine     `json:"items"`
	Timestamp   time.Time       `json:"timestamp"`
}

// OrderFailedEvent is published when a placement fails after the order was
// already persisted, leaving it flagged FAILED.
type OrderFailedEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
