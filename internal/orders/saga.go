package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

var (
	ErrProductUnknown    = errors.New("product unknown")
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrPlacementFailed marks failures that happened after the order was
	// persisted: the order exists and is flagged FAILED.
	ErrPlacementFailed = errors.New("order placement failed")
)

// OrderStore is the subset of the repository the placement flow needs.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

// StockClient talks to the product service. GetStock resolves a product's
// available stock, returning ErrProductUnknown when the product does not
// exist. DecreaseStock applies a DECREASE mutation, returning
// ErrInsufficientStock when the product service refuses.
type StockClient interface {
	GetStock(ctx context.Context, productID string) (int, error)
	DecreaseStock(ctx context.Context, productID string, quantity int) error
}

// CartClient clears a user's cart after a committed order.
type CartClient interface {
	ClearCart(ctx context.Context, userID string) error
}

// EventPublisher emits order lifecycle events. May be nil.
type EventPublisher interface {
	PublishPlaced(ctx context.Context, event domain.OrderPlacedEvent) error
	PublishFailed(ctx context.Context, event domain.OrderFailedEvent) error
}

// Saga drives order placement: validate, gate stock, persist PENDING,
// decrement stock per line, clear the cart. The PENDING write is the
// durability boundary; any failure before it leaves no trace, any failure
// after it flags the order FAILED and surfaces the error.
//
// Stock decrements already applied when a later step fails are not rolled
// back. A partially decremented FAILED order is therefore possible and
// expected; see the package tests.
type Saga struct {
	store  OrderStore
	stock  StockClient
	carts  CartClient
	events EventPublisher
	logger *slog.Logger
}

func NewSaga(store OrderStore, stock StockClient, carts CartClient, events EventPublisher, logger *slog.Logger) *Saga {
	return &Saga{
		store:  store,
		stock:  stock,
		carts:  carts,
		events: events,
		logger: logger,
	}
}

// PlaceOrder runs the placement sequence. On post-persist failure the
// returned order is non-nil with status FAILED and the error wraps
// ErrPlacementFailed.
func (s *Saga) PlaceOrder(ctx context.Context, req PlacementRequest) (*domain.Order, error) {
	order, err := Assemble(req)
	if err != nil {
		return nil, err
	}

	if err := s.checkAvailability(ctx, order.Items); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	for _, line := range order.Items {
		if err := s.stock.DecreaseStock(ctx, line.ProductID, line.Quantity); err != nil {
			return s.fail(ctx, order, fmt.Errorf("decrease stock for product %s: %w", line.ProductID, err))
		}
	}

	if err := s.carts.ClearCart(ctx, order.UserID); err != nil {
		return s.fail(ctx, order, fmt.Errorf("clear cart for user %s: %w", order.UserID, err))
	}

	s.publishPlaced(ctx, order)
	s.logger.Info("order placed", "order_id", order.ID, "user_id", order.UserID, "total", order.TotalAmount)
	return order, nil
}

// checkAvailability runs the read-only stock gate over every line. Failing
// here is the last point at which placement can abort without a persisted
// record.
func (s *Saga) checkAvailability(ctx context.Context, lines []domain.OrderLine) error {
	for _, line := range lines {
		available, err := s.stock.GetStock(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, ErrProductUnknown) {
				return fmt.Errorf("%w: %s", ErrProductUnknown, line.ProductID)
			}
			return fmt.Errorf("check stock for product %s: %w", line.ProductID, err)
		}
		if available < line.Quantity {
			return fmt.Errorf("%w: product %s has %d, requested %d",
				ErrInsufficientStock, line.ProductID, available, line.Quantity)
		}
	}
	return nil
}

// fail records the compensating FAILED status and surfaces the cause. The
// order record is kept so the caller can tell "nothing happened" from
// "something happened but the order is flagged".
func (s *Saga) fail(ctx context.Context, order *domain.Order, cause error) (*domain.Order, error) {
	s.logger.Error("order placement failed", "order_id", order.ID, "error", cause)

	if _, err := s.store.UpdateStatus(ctx, order.ID, domain.OrderStatusFailed); err != nil {
		s.logger.Error("failed to flag order", "order_id", order.ID, "error", err)
	}
	order.Status = domain.OrderStatusFailed

	s.publishFailed(ctx, order, cause)
	return order, fmt.Errorf("%w: %w", ErrPlacementFailed, cause)
}

func (s *Saga) publishPlaced(ctx context.Context, order *domain.Order) {
	if s.events == nil {
		return
	}
	event := domain.OrderPlacedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       order.Items,
		Timestamp:   order.CreatedAt,
	}
	if err := s.events.PublishPlaced(ctx, event); err != nil {
		s.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
	}
}

func (s *Saga) publishFailed(ctx context.Context, order *domain.Order, cause error) {
	if s.events == nil {
		return
	}
	event := domain.OrderFailedEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Reason:    cause.Error(),
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.PublishFailed(ctx, event); err != nil {
		s.logger.Error("failed to publish order failed event", "error", err, "order_id", order.ID)
	}
}
