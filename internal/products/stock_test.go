package products

import (
	"errors"
	"testing"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

func TestApplyStockUpdate(t *testing.T) {
	t.Run("DECREASE within stock", func(t *testing.T) {
		got, err := applyStockUpdate(10, 2, domain.StockDecrease)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 8 {
			t.Errorf("expected 8, got %d", got)
		}
	})

	t.Run("DECREASE to exactly zero", func(t *testing.T) {
		got, err := applyStockUpdate(5, 5, domain.StockDecrease)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("DECREASE below zero is rejected", func(t *testing.T) {
		_, err := applyStockUpdate(1, 2, domain.StockDecrease)
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
	})

	t.Run("DECREASE from zero stock is rejected", func(t *testing.T) {
		_, err := applyStockUpdate(0, 1, domain.StockDecrease)
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
	})

	t.Run("INCREASE always succeeds for valid quantity", func(t *testing.T) {
		got, err := applyStockUpdate(3, 7, domain.StockIncrease)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 10 {
			t.Errorf("expected 10, got %d", got)
		}
	})

	t.Run("negative quantity is rejected for both operations", func(t *testing.T) {
		for _, op := range []domain.StockOperation{domain.StockIncrease, domain.StockDecrease} {
			if _, err := applyStockUpdate(10, -1, op); !errors.Is(err, ErrNegativeQuantity) {
				t.Errorf("expected ErrNegativeQuantity for %s, got %v", op, err)
			}
		}
	})

	t.Run("unknown operation is rejected by name", func(t *testing.T) {
		_, err := applyStockUpdate(10, 1, "RESERVE")
		if !errors.Is(err, ErrInvalidOperation) {
			t.Fatalf("expected ErrInvalidOperation, got %v", err)
		}
		if got := err.Error(); got != `invalid stock operation: "RESERVE"` {
			t.Errorf("expected the offending operation in the message, got %q", got)
		}
	})
}
