package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

var (
	ErrNoItems         = errors.New("order must contain at least one item")
	ErrInvalidQuantity = errors.New("line quantity must be at least one")
	ErrTotalMismatch   = errors.New("total amount does not match the sum of items")
)

// totalTolerance absorbs client-side rounding when comparing a supplied
// total against the line-item sum.
var totalTolerance = decimal.NewFromFloat(0.01)

// PlacementRequest is the raw input to order placement: what the client (or
// the cart service on checkout) claims the order should be.
type PlacementRequest struct {
	UserID      string             `json:"user_id"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Items       []domain.OrderLine `json:"items"`
}

// Assemble turns a placement request into a normalized PENDING order,
// validating shape and arithmetic only. It does not consult stock or touch
// persistence.
func Assemble(req PlacementRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}

	order := &domain.Order{
		UserID:      req.UserID,
		Status:      domain.OrderStatusPending,
		TotalAmount: req.TotalAmount,
		Items:       req.Items,
		CreatedAt:   time.Now().UTC(),
	}

	for _, line := range order.Items {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: got %d for product %s", ErrInvalidQuantity, line.Quantity, line.ProductID)
		}
	}

	if req.TotalAmount.Sub(order.LineTotal()).Abs().GreaterThan(totalTolerance) {
		return nil, ErrTotalMismatch
	}

	return order, nil
}
