package parties

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	List(ctx context.Context, kind Kind, search string) ([]Party, error)
	Get(ctx context.Context, kind Kind, id int64) (Party, error)
	Create(ctx context.Context, party Party) (Party, error)
	Update(ctx context.Context, id int64, party Party) error
	ListStatementLines(ctx context.Context, kind Kind, id int64) ([]StatementLine, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, kind Kind, search string) ([]Party, error) {
	query := `SELECT id, kind, code, name, balance, created_at, updated_at FROM parties WHERE kind = $1`
	args := []interface{}{string(kind)}
	if search != "" {
		query += ` AND (name ILIKE $2 OR code ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY code`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Party
	for rows.Next() {
		var p Party
		if err := rows.Scan(&p.ID, &p.Kind, &p.Code, &p.Name, &p.Balance, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, kind Kind, id int64) (Party, error) {
	query := `SELECT id, kind, code, name, balance, created_at, updated_at FROM parties WHERE id = $1 AND kind = $2`
	var p Party
	err := r.db.QueryRow(ctx, query, id, string(kind)).Scan(&p.ID, &p.Kind, &p.Code, &p.Name, &p.Balance, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Party{}, ErrPartyNotFound
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, party Party) (Party, error) {
	query := `INSERT INTO parties (kind, code, name, balance, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $4) RETURNING id`
	now := time.Now()
	if err := r.db.QueryRow(ctx, query, string(party.Kind), party.Code, party.Name, now).Scan(&party.ID); err != nil {
		return Party{}, err
	}
	party.CreatedAt = now
	party.UpdatedAt = now
	return party, nil
}

func (r *repository) Update(ctx context.Context, id int64, party Party) error {
	query := `UPDATE parties SET code = $1, name = $2, updated_at = $3 WHERE id = $4`
	tag, err := r.db.Exec(ctx, query, party.Code, party.Name, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPartyNotFound
	}
	return nil
}

// journal_lines references its entry through je_id, the column the
// posting writer creates.
const statementLinesQuery = `SELECT je.date, je.id, je.number, jl.id, je.description, jl.debit, jl.credit
	FROM journal_lines jl
	JOIN journal_entries je ON je.id = jl.je_id
	WHERE jl.party_kind = $1 AND jl.party_id = $2
	  AND je.status IN ('POSTED', 'CANCELLED')
	ORDER BY je.date, jl.id`

// ListStatementLines returns the posted journal lines carrying this
// party's dimension. Cancelled entries are included: the reversing entry
// carries its own lines, so both appear and net to zero.
func (r *repository) ListStatementLines(ctx context.Context, kind Kind, id int64) ([]StatementLine, error) {
	rows, err := r.db.Query(ctx, statementLinesQuery, string(kind), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatementLine
	for rows.Next() {
		var line StatementLine
		if err := rows.Scan(&line.Date, &line.EntryID, &line.EntryNumber, &line.LineID, &line.Description, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}
