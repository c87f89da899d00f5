package carts

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// GetByUser returns the user's cart with its lines in insertion order, or
// nil when the user has no cart yet.
func (r *CartRepository) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id
		FROM carts
		WHERE user_id = $1
	`, userID).Scan(&cart.ID, &cart.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, unit_price
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY position
	`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}

// Save upserts the cart record and rewrites its lines in one transaction,
// preserving the order of cart.Items. A cart created here gets a fresh id.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO carts (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, cart.ID, cart.UserID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return err
	}

	for i, line := range cart.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (cart_id, product_id, product_name, quantity, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, cart.ID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice, i)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Clear removes every line while keeping the cart record. Returns false when
// the user has no cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) (bool, error) {
	var cartID string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM carts WHERE user_id = $1
	`, userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return false, err
	}
	return true, nil
}
