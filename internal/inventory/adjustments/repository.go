package adjustments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// ErrAdjustmentNotFound indicates a stale adjustment reference.
var ErrAdjustmentNotFound = errors.New("adjustments: adjustment not found")

type Repository interface {
	CreateDraft(ctx context.Context, adj Adjustment) (Adjustment, error)
	Get(ctx context.Context, id int64) (Adjustment, error)
	List(ctx context.Context) ([]Adjustment, error)
	DeleteDraft(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) CreateDraft(ctx context.Context, adj Adjustment) (Adjustment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Adjustment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	err = tx.QueryRow(ctx, `INSERT INTO inventory_adjustments (source_id, note, status, created_by, created_at, updated_at)
VALUES ($1, $2, 'DRAFT', $3, $4, $4) RETURNING id`,
		adj.SourceID, adj.Note, adj.CreatedBy, now).Scan(&adj.ID)
	if err != nil {
		return Adjustment{}, err
	}
	for i := range adj.Items {
		item := &adj.Items[i]
		item.AdjustmentID = adj.ID
		err = tx.QueryRow(ctx, `INSERT INTO inventory_adjustment_items (adjustment_id, product_id, system_qty, actual_qty, unit_cost)
VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			adj.ID, item.ProductID, item.SystemQty, item.ActualQty, item.UnitCost).Scan(&item.ID)
		if err != nil {
			return Adjustment{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Adjustment{}, err
	}
	adj.Status = StatusDraft
	adj.CreatedAt = now
	adj.UpdatedAt = now
	return adj, nil
}

const adjustmentColumns = `id, source_id, note, status, created_by, je_id, approved_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (Adjustment, error) {
	var adj Adjustment
	err := r.db.QueryRow(ctx, `SELECT `+adjustmentColumns+` FROM inventory_adjustments WHERE id = $1`, id).
		Scan(&adj.ID, &adj.SourceID, &adj.Note, &adj.Status, &adj.CreatedBy, &adj.JournalEntryID, &adj.ApprovedAt, &adj.CreatedAt, &adj.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Adjustment{}, ErrAdjustmentNotFound
	}
	if err != nil {
		return Adjustment{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, adjustment_id, product_id, system_qty, actual_qty, unit_cost
FROM inventory_adjustment_items WHERE adjustment_id = $1 ORDER BY id`, id)
	if err != nil {
		return Adjustment{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.AdjustmentID, &item.ProductID, &item.SystemQty, &item.ActualQty, &item.UnitCost); err != nil {
			return Adjustment{}, err
		}
		adj.Items = append(adj.Items, item)
	}
	return adj, rows.Err()
}

func (r *repository) List(ctx context.Context) ([]Adjustment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+adjustmentColumns+` FROM inventory_adjustments ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Adjustment
	for rows.Next() {
		var adj Adjustment
		if err := rows.Scan(&adj.ID, &adj.SourceID, &adj.Note, &adj.Status, &adj.CreatedBy, &adj.JournalEntryID, &adj.ApprovedAt, &adj.CreatedAt, &adj.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, adj)
	}
	return out, rows.Err()
}

// DeleteDraft removes a draft and its items. Approved adjustments are
// part of ledger history and cannot be deleted.
func (r *repository) DeleteDraft(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM inventory_adjustment_items WHERE adjustment_id = $1`, id); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM inventory_adjustments WHERE id = $1 AND status = 'DRAFT'`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, getErr := r.Get(ctx, id); errors.Is(getErr, ErrAdjustmentNotFound) {
			return ErrAdjustmentNotFound
		}
		return shared.ErrInvalidStatus
	}
	return tx.Commit(ctx)
}
