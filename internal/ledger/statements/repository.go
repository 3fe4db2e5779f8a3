package statements

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Period bounds a statement. Zero From means "from the beginning"; zero
// To means "through today".
type Period struct {
	From time.Time
	To   time.Time
}

type Repository interface {
	AccountBalances(ctx context.Context, period Period) ([]AccountBalance, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// AccountBalances aggregates posted journal lines per leaf account.
// journal_lines references its entry through je_id, the column the
// posting writer creates.
const accountBalancesQuery = `SELECT a.code, a.name, a.type,
	COALESCE(SUM(CASE WHEN je.date < $1 THEN jl.debit - jl.credit ELSE 0 END), 0) AS opening,
	COALESCE(SUM(CASE WHEN je.date >= $1 AND je.date <= $2 THEN jl.debit ELSE 0 END), 0) AS debit,
	COALESCE(SUM(CASE WHEN je.date >= $1 AND je.date <= $2 THEN jl.credit ELSE 0 END), 0) AS credit
	FROM accounts a
	JOIN journal_lines jl ON jl.account_id = a.id
	JOIN journal_entries je ON je.id = jl.je_id
	WHERE je.status IN ('POSTED', 'CANCELLED')
	GROUP BY a.code, a.name, a.type
	ORDER BY a.code`

// Cancelled entries stay in the sums because their reversing entries do
// too; the pair nets to zero without rewriting history. Activity before
// the period start is collapsed into the opening column.
func (r *repository) AccountBalances(ctx context.Context, period Period) ([]AccountBalance, error) {
	from := period.From
	to := period.To
	if to.IsZero() {
		to = time.Now()
	}

	rows, err := r.db.Query(ctx, accountBalancesQuery, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AccountBalance
	for rows.Next() {
		var ab AccountBalance
		if err := rows.Scan(&ab.Code, &ab.Name, &ab.Type, &ab.Opening, &ab.Debit, &ab.Credit); err != nil {
			return nil, err
		}
		out = append(out, ab)
	}
	return out, rows.Err()
}
