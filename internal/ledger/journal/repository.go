package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/parties"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository encapsulates DB operations for journals.
type Repository interface {
	List(ctx context.Context) ([]Entry, error)
	GetEntryWithLines(ctx context.Context, entryID int64) (Entry, []Line, error)
	ListMovementsForEntry(ctx context.Context, entryID int64) ([]inventory.Movement, error)
	ListAccountLines(ctx context.Context, accountID int64) ([]AccountLine, error)
	LedgerTotals(ctx context.Context) (Totals, error)
	ListPartyDrifts(ctx context.Context) ([]PartyDrift, error)
	// Tx operations are internal or exposed via specific service methods.
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a posting transaction.
// Party, product, and adjustment writes live here rather than in their
// own repositories because they must share the posting's atomic unit.
type TxRepository interface {
	InsertEntry(ctx context.Context, in PostingInput, totals Totals) (Entry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput) ([]Line, error)
	LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error
	GetEntryWithLines(ctx context.Context, entryID int64) (Entry, []Line, error)
	MarkCancelled(ctx context.Context, entryID, reversalID int64) error

	GetPartyForUpdate(ctx context.Context, kind parties.Kind, id int64) (parties.Party, error)
	UpdatePartyBalance(ctx context.Context, kind parties.Kind, id int64, balance decimal.Decimal) error

	GetProductForUpdate(ctx context.Context, id int64) (inventory.Product, error)
	UpdateProductStock(ctx context.Context, product inventory.Product) error
	InsertMovement(ctx context.Context, entryID int64, m inventory.MovementInput, postedAt time.Time) error

	MarkAdjustmentApproved(ctx context.Context, adjustmentID, entryID int64, at time.Time) error
}

// PartyDrift reports a stored party balance that disagrees with the
// replay of its posted lines.
type PartyDrift struct {
	Kind     parties.Kind    `json:"kind"`
	PartyID  int64           `json:"party_id"`
	Code     string          `json:"code"`
	Stored   decimal.Decimal `json:"stored"`
	Replayed decimal.Decimal `json:"replayed"`
}

// IsSerializationFailure reports whether an error is a transient
// transaction conflict worth one automatic retry.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, number, description, date, source_module, source_id, total_debit, total_credit, status, reversed_by, posted_by, created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Number, &e.Description, &e.Date, &e.SourceModule, &e.SourceID,
		&e.TotalDebit, &e.TotalCredit, &e.Status, &e.ReversedBy, &e.PostedBy, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *repository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries ORDER BY number DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) GetEntryWithLines(ctx context.Context, entryID int64) (Entry, []Line, error) {
	return getEntryWithLines(ctx, r.db, entryID)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getEntryWithLines(ctx context.Context, q queryer, entryID int64) (Entry, []Line, error) {
	entry, err := scanEntry(q.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, nil, shared.ErrJournalNotFound
		}
		return Entry{}, nil, err
	}
	rows, err := q.Query(ctx, `SELECT id, je_id, account_id, debit, credit, party_kind, party_id, created_at
FROM journal_lines WHERE je_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return Entry{}, nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit, &line.PartyKind, &line.PartyID, &line.CreatedAt); err != nil {
			return Entry{}, nil, err
		}
		lines = append(lines, line)
	}
	return entry, lines, rows.Err()
}

func (r *repository) ListMovementsForEntry(ctx context.Context, entryID int64) ([]inventory.Movement, error) {
	rows, err := r.db.Query(ctx, `SELECT id, product_id, je_id, type, quantity, total_cost, posted_at
FROM inventory_movements WHERE je_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []inventory.Movement
	for rows.Next() {
		var m inventory.Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.JournalEntryID, &m.Type, &m.Quantity, &m.TotalCost, &m.PostedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *repository) ListAccountLines(ctx context.Context, accountID int64) ([]AccountLine, error) {
	rows, err := r.db.Query(ctx, `SELECT e.date, e.id, e.number, l.id, e.description, l.debit, l.credit
FROM journal_lines l
JOIN journal_entries e ON e.id = l.je_id
WHERE l.account_id=$1 AND e.status IN ('POSTED','CANCELLED')
ORDER BY e.date ASC, e.number ASC, l.id ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []AccountLine
	for rows.Next() {
		var line AccountLine
		if err := rows.Scan(&line.Date, &line.EntryID, &line.EntryNumber, &line.LineID, &line.Description, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *repository) LedgerTotals(ctx context.Context) (Totals, error) {
	var t Totals
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.je_id
WHERE e.status IN ('POSTED','CANCELLED')`).Scan(&t.Debit, &t.Credit)
	return t, err
}

func (r *repository) ListPartyDrifts(ctx context.Context) ([]PartyDrift, error) {
	rows, err := r.db.Query(ctx, `SELECT p.kind, p.id, p.code, p.balance,
COALESCE(SUM(CASE WHEN p.kind='CUSTOMER' THEN l.debit - l.credit ELSE l.credit - l.debit END), 0) AS replayed
FROM parties p
LEFT JOIN journal_lines l ON l.party_kind = p.kind AND l.party_id = p.id
LEFT JOIN journal_entries e ON e.id = l.je_id AND e.status IN ('POSTED','CANCELLED')
GROUP BY p.kind, p.id, p.code, p.balance
HAVING p.balance <> COALESCE(SUM(CASE WHEN p.kind='CUSTOMER' THEN l.debit - l.credit ELSE l.credit - l.debit END), 0)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var drifts []PartyDrift
	for rows.Next() {
		var d PartyDrift
		if err := rows.Scan(&d.Kind, &d.PartyID, &d.Code, &d.Stored, &d.Replayed); err != nil {
			return nil, err
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertEntry(ctx context.Context, in PostingInput, totals Totals) (Entry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (description, date, source_module, source_id, total_debit, total_credit, posted_by, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,'POSTED') RETURNING id, number, created_at, updated_at`,
		in.Description, in.Date, in.SourceModule, in.SourceID, totals.Debit, totals.Credit, nullInt(in.PostedBy))
	entry := Entry{
		Description:  in.Description,
		Date:         in.Date,
		SourceModule: in.SourceModule,
		SourceID:     in.SourceID,
		TotalDebit:   totals.Debit,
		TotalCredit:  totals.Credit,
		PostedBy:     in.PostedBy,
		Status:       StatusPosted,
	}
	if err := row.Scan(&entry.ID, &entry.Number, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		var kind *string
		if line.PartyKind != nil {
			s := string(*line.PartyKind)
			kind = &s
		}
		inserted := Line{
			EntryID:   entryID,
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
			PartyKind: kind,
			PartyID:   line.PartyID,
		}
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_lines (je_id, account_id, debit, credit, party_kind, party_id)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at`,
			entryID, line.AccountID, line.Debit, line.Credit, kind, nullIntPtr(line.PartyID)).
			Scan(&inserted.ID, &inserted.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (r *txRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (module, ref_id, je_id) VALUES ($1,$2,$3)`, module, ref, entryID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_source_links" {
			return shared.ErrSourceAlreadyLinked
		}
		return err
	}
	return nil
}

func (r *txRepository) GetEntryWithLines(ctx context.Context, entryID int64) (Entry, []Line, error) {
	return getEntryWithLines(ctx, r.tx, entryID)
}

func (r *txRepository) MarkCancelled(ctx context.Context, entryID, reversalID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='CANCELLED', reversed_by=$2, updated_at=NOW()
WHERE id=$1 AND status='POSTED'`, entryID, reversalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrInvalidStatus
	}
	return nil
}

// GetPartyForUpdate locks the party row for the remainder of the posting
// transaction, serialising balance mutations per party without a global
// lock.
func (r *txRepository) GetPartyForUpdate(ctx context.Context, kind parties.Kind, id int64) (parties.Party, error) {
	var p parties.Party
	err := r.tx.QueryRow(ctx, `SELECT id, kind, code, name, balance, created_at, updated_at
FROM parties WHERE kind=$1 AND id=$2 FOR UPDATE`, kind, id).
		Scan(&p.ID, &p.Kind, &p.Code, &p.Name, &p.Balance, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return parties.Party{}, parties.ErrPartyNotFound
		}
		return parties.Party{}, err
	}
	return p, nil
}

func (r *txRepository) UpdatePartyBalance(ctx context.Context, kind parties.Kind, id int64, balance decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE parties SET balance=$3, updated_at=NOW() WHERE kind=$1 AND id=$2`, kind, id, balance)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return parties.ErrPartyNotFound
	}
	return nil
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id int64) (inventory.Product, error) {
	var p inventory.Product
	err := r.tx.QueryRow(ctx, `SELECT id, code, name, brand, model, qty_on_hand, received_qty, received_cost, created_at, updated_at
FROM products WHERE id=$1 FOR UPDATE`, id).
		Scan(&p.ID, &p.Code, &p.Name, &p.Brand, &p.Model, &p.QtyOnHand, &p.ReceivedQty, &p.ReceivedCost, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Product{}, inventory.ErrProductNotFound
		}
		return inventory.Product{}, err
	}
	return p, nil
}

func (r *txRepository) UpdateProductStock(ctx context.Context, product inventory.Product) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE products SET qty_on_hand=$2, received_qty=$3, received_cost=$4, updated_at=NOW() WHERE id=$1`,
		product.ID, product.QtyOnHand, product.ReceivedQty, product.ReceivedCost)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return inventory.ErrProductNotFound
	}
	return nil
}

func (r *txRepository) InsertMovement(ctx context.Context, entryID int64, m inventory.MovementInput, postedAt time.Time) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO inventory_movements (product_id, je_id, type, quantity, total_cost, posted_at)
VALUES ($1,$2,$3,$4,$5,$6)`, m.ProductID, entryID, m.Type, m.Quantity, m.TotalCost, postedAt)
	return err
}

// MarkAdjustmentApproved flips a draft adjustment to approved inside the
// posting transaction so approval and ledger effect commit together.
func (r *txRepository) MarkAdjustmentApproved(ctx context.Context, adjustmentID, entryID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE inventory_adjustments SET status='APPROVED', je_id=$2, approved_at=$3, updated_at=NOW()
WHERE id=$1 AND status='DRAFT'`, adjustmentID, entryID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrInvalidStatus
	}
	return nil
}

// Helpers
func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}

func nullIntPtr(val *int64) any {
	if val == nil {
		return nil
	}
	if *val == 0 {
		return nil
	}
	return *val
}
