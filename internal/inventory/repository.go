package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed inventory repository.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

func (r *repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `SELECT id, code, name, brand, model, qty_on_hand, received_qty, received_cost, created_at, updated_at
FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Code, &p.Name, &p.Brand, &p.Model, &p.QtyOnHand, &p.ReceivedQty, &p.ReceivedCost, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, brand, model, qty_on_hand, received_qty, received_cost, created_at, updated_at
FROM products ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Brand, &p.Model, &p.QtyOnHand, &p.ReceivedQty, &p.ReceivedCost, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) ListMovements(ctx context.Context, productID int64) ([]Movement, error) {
	rows, err := r.db.Query(ctx, `SELECT id, product_id, je_id, type, quantity, total_cost, posted_at
FROM inventory_movements WHERE product_id=$1 ORDER BY posted_at ASC, id ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.JournalEntryID, &m.Type, &m.Quantity, &m.TotalCost, &m.PostedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *repository) CreateProduct(ctx context.Context, product Product) (Product, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO products (code, name, brand, model, qty_on_hand, received_qty, received_cost, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, 0, 0, NOW(), NOW()) RETURNING id, created_at, updated_at`,
		product.Code, product.Name, product.Brand, product.Model).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

func (r *repository) UpdateProduct(ctx context.Context, id int64, product Product) error {
	cmd, err := r.db.Exec(ctx, `UPDATE products SET code=$1, name=$2, brand=$3, model=$4, updated_at=NOW() WHERE id=$5`,
		product.Code, product.Name, product.Brand, product.Model, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) ListProductIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
