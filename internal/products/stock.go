package products

import (
	"errors"
	"fmt"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNegativeQuantity  = errors.New("stock quantity must be non-negative")
	ErrInvalidOperation  = errors.New("invalid stock operation")
)

// applyStockUpdate computes the new stock level for a mutation. DECREASE
// refuses to cross zero; INCREASE always succeeds for a valid quantity; any
// other operation string is rejected by name.
func applyStockUpdate(current, quantity int, op domain.StockOperation) (int, error) {
	if quantity < 0 {
		return 0, fmt.Errorf("%w: got %d", ErrNegativeQuantity, quantity)
	}

	switch op {
	case domain.StockDecrease:
		if quantity > current {
			return 0, fmt.Errorf("%w: cannot decrease %d below current stock %d", ErrInsufficientStock, quantity, current)
		}
		return current - quantity, nil
	case domain.StockIncrease:
		return current + quantity, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOperation, op)
	}
}
