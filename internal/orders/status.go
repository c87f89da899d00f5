package orders

import (
	"errors"
	"fmt"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

// ErrIllegalTransition is returned when a requested status change is not
// permitted from the order's current status.
var ErrIllegalTransition = errors.New("illegal order status transition")

var validStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusPending:    true,
	domain.OrderStatusProcessing: true,
	domain.OrderStatusShipped:    true,
	domain.OrderStatusDelivered:  true,
	domain.OrderStatusCancelled:  true,
	domain.OrderStatusFailed:     true,
}

// ParseStatus rejects anything outside the enumerated status set.
func ParseStatus(s string) (domain.OrderStatus, error) {
	status := domain.OrderStatus(s)
	if !validStatuses[status] {
		return "", fmt.Errorf("unknown order status: %q", s)
	}
	return status, nil
}

// transitions lists the status changes reachable through the public status
// update operation. FAILED is deliberately absent as a target: orders reach
// it only through the placement flow's compensating write. CANCELLED is
// reachable from PENDING alone.
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped},
	domain.OrderStatusShipped:    {domain.OrderStatusDelivered},
}

// CanTransition reports whether the public status update operation may move
// an order from one status to another.
func CanTransition(from, to domain.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
