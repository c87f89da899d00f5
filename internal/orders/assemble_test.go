package orders

import (
	"errors"
	"testing"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

func TestAssemble(t *testing.T) {
	t.Run("computes a PENDING order from a valid request", func(t *testing.T) {
		order, err := Assemble(singleLineRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.Status != domain.OrderStatusPending {
			t.Errorf("expected PENDING, got %s", order.Status)
		}
		if order.CreatedAt.IsZero() {
			t.Error("expected created_at to be set")
		}
		if !order.LineTotal().Equal(dec("100.00")) {
			t.Errorf("expected line total 100.00, got %s", order.LineTotal())
		}
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		req := singleLineRequest()
		req.Items = nil
		if _, err := Assemble(req); !errors.Is(err, ErrNoItems) {
			t.Fatalf("expected ErrNoItems, got %v", err)
		}
	})

	t.Run("rejects zero quantity lines", func(t *testing.T) {
		req := singleLineRequest()
		req.Items[0].Quantity = 0
		req.TotalAmount = dec("0.00")
		if _, err := Assemble(req); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})

	t.Run("tolerates a supplied total off by at most 0.01", func(t *testing.T) {
		for _, total := range []string{"99.99", "100.00", "100.01"} {
			req := singleLineRequest()
			req.TotalAmount = dec(total)
			if _, err := Assemble(req); err != nil {
				t.Errorf("expected total %s to be accepted, got %v", total, err)
			}
		}
	})

	t.Run("rejects a supplied total off by more than 0.01", func(t *testing.T) {
		for _, total := range []string{"99.98", "100.02", "0.00", "200.00"} {
			req := singleLineRequest()
			req.TotalAmount = dec(total)
			if _, err := Assemble(req); !errors.Is(err, ErrTotalMismatch) {
				t.Errorf("expected total %s to be rejected with ErrTotalMismatch, got %v", total, err)
			}
		}
	})
}
