package products

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

type ProductRepository struct {
	db *sql.DB

	// atomicStock selects the conditional single-statement decrement
	// instead of the read-then-write mutation. The latter reproduces the
	// check/act race between concurrent placements; the former collapses
	// check and mutate into one guarded UPDATE.
	atomicStock bool
}

func NewProductRepository(db *sql.DB, atomicStock bool) *ProductRepository {
	return &ProductRepository{db: db, atomicStock: atomicStock}
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, available_stock
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.AvailableStock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, available_stock
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.AvailableStock)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, available_stock)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.Name, p.Description, p.Price, p.AvailableStock)
	return err
}

// Update replaces a product's mutable fields. Returns false when the product
// does not exist.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products SET name = $1, description = $2, price = $3, available_stock = $4
		WHERE id = $5
	`, p.Name, p.Description, p.Price, p.AvailableStock, p.ID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// UpdateStock applies an INCREASE or DECREASE mutation and returns the
// updated product. Returns nil when the product does not exist. No partial
// write happens on a rejected mutation.
func (r *ProductRepository) UpdateStock(ctx context.Context, id string, quantity int, op domain.StockOperation) (*domain.Product, error) {
	if r.atomicStock && op == domain.StockDecrease {
		return r.decrementAtomic(ctx, id, quantity)
	}
	return r.updateStockReadThenWrite(ctx, id, quantity, op)
}

// updateStockReadThenWrite is the faithful two-step mutation: read the
// current level, validate, write the new level. Two concurrent DECREASEs can
// both pass validation against the same snapshot.
func (r *ProductRepository) updateStockReadThenWrite(ctx context.Context, id string, quantity int, op domain.StockOperation) (*domain.Product, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	newStock, err := applyStockUpdate(p.AvailableStock, quantity, op)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE products SET available_stock = $1
		WHERE id = $2
	`, newStock, id)
	if err != nil {
		return nil, err
	}

	p.AvailableStock = newStock
	return p, nil
}

// decrementAtomic folds the availability check into the UPDATE itself, so
// validation and mutation act on the same row version.
func (r *ProductRepository) decrementAtomic(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeQuantity, quantity)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products SET available_stock = available_stock - $1
		WHERE id = $2 AND available_stock >= $1
	`, quantity, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		p, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, nil
		}
		return nil, ErrInsufficientStock
	}

	return r.GetByID(ctx, id)
}
