package parties

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/projection"
	"github.com/meridian-erp/meridian-erp/internal/money"
)

// StatementRow is one statement line with the running balance after it.
// For suppliers the debit and credit columns are swapped relative to the
// stored journal line, so "charge" always grows the balance and
// "settlement" always shrinks it regardless of kind.
type StatementRow struct {
	StatementLine
	Running decimal.Decimal `json:"running"`
}

// Statement is a party's full transaction history plus the drift between
// the replayed closing balance and the stored one. Drift outside the
// rounding tolerance means a posting bypassed the transaction path.
type Statement struct {
	Party   Party           `json:"party"`
	Rows    []StatementRow  `json:"rows"`
	Closing decimal.Decimal `json:"closing"`
	Drift   decimal.Decimal `json:"drift"`
}

// Consistent reports whether the replayed balance matches the stored one.
func (s Statement) Consistent() bool {
	return money.WithinEpsilon(s.Closing, s.Party.Balance)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, kind Kind, search string) ([]Party, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return s.repo.List(ctx, kind, search)
}

func (s *Service) Get(ctx context.Context, kind Kind, id int64) (Party, error) {
	if !kind.Valid() {
		return Party{}, ErrInvalidKind
	}
	return s.repo.Get(ctx, kind, id)
}

func (s *Service) Create(ctx context.Context, party Party) (Party, error) {
	if !party.Kind.Valid() {
		return Party{}, ErrInvalidKind
	}
	party.Code = strings.TrimSpace(party.Code)
	party.Name = strings.TrimSpace(party.Name)
	if party.Code == "" || party.Name == "" {
		return Party{}, errors.New("parties: code and name are required")
	}
	return s.repo.Create(ctx, party)
}

func (s *Service) Update(ctx context.Context, kind Kind, id int64, party Party) error {
	if _, err := s.Get(ctx, kind, id); err != nil {
		return err
	}
	party.Code = strings.TrimSpace(party.Code)
	party.Name = strings.TrimSpace(party.Name)
	if party.Code == "" || party.Name == "" {
		return errors.New("parties: code and name are required")
	}
	return s.repo.Update(ctx, id, party)
}

// Statement rebuilds the party's running balance from its journal lines.
// Customer balances grow with debits (invoices) and shrink with credits
// (receipts); supplier balances grow with credits (bills) and shrink with
// debits (payments). The projector always folds debit minus credit, so
// supplier lines are presented with the columns swapped.
func (s *Service) Statement(ctx context.Context, kind Kind, id int64) (Statement, error) {
	party, err := s.Get(ctx, kind, id)
	if err != nil {
		return Statement{}, err
	}
	lines, err := s.repo.ListStatementLines(ctx, kind, id)
	if err != nil {
		return Statement{}, err
	}

	byLineID := make(map[int64]StatementLine, len(lines))
	projLines := make([]projection.Line, 0, len(lines))
	for _, line := range lines {
		byLineID[line.LineID] = line
		debit, credit := line.Debit, line.Credit
		if kind == KindSupplier {
			debit, credit = credit, debit
		}
		projLines = append(projLines, projection.Line{
			Date:   line.Date,
			Seq:    line.LineID,
			Ref:    line.Description,
			Debit:  debit,
			Credit: credit,
		})
	}

	steps := projection.Project(projLines, decimal.Zero)
	rows := make([]StatementRow, 0, len(steps))
	closing := decimal.Zero
	for _, step := range steps {
		rows = append(rows, StatementRow{
			StatementLine: byLineID[step.Line.Seq],
			Running:       step.Running,
		})
		closing = step.Running
	}

	return Statement{
		Party:   party,
		Rows:    rows,
		Closing: closing,
		Drift:   closing.Sub(party.Balance),
	}, nil
}
