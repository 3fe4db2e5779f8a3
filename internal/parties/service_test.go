package parties

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/meridian-erp/meridian-erp/testing"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fakePartiesRepo struct {
	parties map[int64]Party
	lines   map[int64][]StatementLine
}

func (f *fakePartiesRepo) List(ctx context.Context, kind Kind, search string) ([]Party, error) {
	var out []Party
	for _, p := range f.parties {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePartiesRepo) Get(ctx context.Context, kind Kind, id int64) (Party, error) {
	p, ok := f.parties[id]
	if !ok || p.Kind != kind {
		return Party{}, ErrPartyNotFound
	}
	return p, nil
}

func (f *fakePartiesRepo) Create(ctx context.Context, party Party) (Party, error) {
	party.ID = int64(len(f.parties) + 1)
	f.parties[party.ID] = party
	return party, nil
}

func (f *fakePartiesRepo) Update(ctx context.Context, id int64, party Party) error {
	if _, ok := f.parties[id]; !ok {
		return ErrPartyNotFound
	}
	party.ID = id
	f.parties[id] = party
	return nil
}

func (f *fakePartiesRepo) ListStatementLines(ctx context.Context, kind Kind, id int64) ([]StatementLine, error) {
	return f.lines[id], nil
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestCustomerStatementRunningBalance(t *testing.T) {
	repo := &fakePartiesRepo{
		parties: map[int64]Party{
			1: {ID: 1, Kind: KindCustomer, Code: "CUST-1", Name: "Acme Retail", Balance: dec(1200)},
		},
		lines: map[int64][]StatementLine{
			1: {
				{Date: day(1), EntryNumber: 1, LineID: 1, Description: "Invoice INV-1", Debit: dec(1000)},
				{Date: day(2), EntryNumber: 2, LineID: 2, Description: "Invoice INV-2", Debit: dec(500)},
				{Date: day(3), EntryNumber: 3, LineID: 3, Description: "Receipt RCV-1", Credit: dec(500)},
				{Date: day(4), EntryNumber: 4, LineID: 4, Description: "Invoice INV-3", Debit: dec(200)},
			},
		},
	}
	service := NewService(repo)

	st, err := service.Statement(context.Background(), KindCustomer, 1)
	require.NoError(t, err)
	require.Len(t, st.Rows, 4)
	require.True(t, st.Rows[0].Running.Equal(dec(1000)))
	require.True(t, st.Rows[1].Running.Equal(dec(1500)))
	require.True(t, st.Rows[2].Running.Equal(dec(1000)))
	require.True(t, st.Rows[3].Running.Equal(dec(1200)))
	require.True(t, st.Closing.Equal(dec(1200)))
	require.True(t, st.Drift.IsZero())
	require.True(t, st.Consistent())
}

// Supplier balances grow with credits, so the fold swaps the columns
// while the displayed rows keep the stored ones.
func TestSupplierStatementSwapsColumnsForFold(t *testing.T) {
	repo := &fakePartiesRepo{
		parties: map[int64]Party{
			2: {ID: 2, Kind: KindSupplier, Code: "SUP-1", Name: "Parts Co", Balance: dec(2000)},
		},
		lines: map[int64][]StatementLine{
			2: {
				{Date: day(1), EntryNumber: 1, LineID: 1, Description: "Bill B-1", Credit: dec(3400)},
				{Date: day(5), EntryNumber: 2, LineID: 2, Description: "Payment P-1", Debit: dec(1400)},
			},
		},
	}
	service := NewService(repo)

	st, err := service.Statement(context.Background(), KindSupplier, 2)
	require.NoError(t, err)
	require.Len(t, st.Rows, 2)
	require.True(t, st.Rows[0].Running.Equal(dec(3400)))
	require.True(t, st.Rows[1].Running.Equal(dec(2000)))
	require.True(t, st.Rows[0].Credit.Equal(dec(3400)))
	require.True(t, st.Rows[1].Debit.Equal(dec(1400)))
	require.True(t, st.Consistent())
}

func TestStatementOrdersLinesByDateThenLineID(t *testing.T) {
	repo := &fakePartiesRepo{
		parties: map[int64]Party{
			1: {ID: 1, Kind: KindCustomer, Code: "CUST-1", Name: "Acme Retail", Balance: dec(300)},
		},
		lines: map[int64][]StatementLine{
			1: {
				{Date: day(2), LineID: 9, Description: "later", Debit: dec(100)},
				{Date: day(1), LineID: 5, Description: "earlier", Debit: dec(200)},
			},
		},
	}
	service := NewService(repo)

	st, err := service.Statement(context.Background(), KindCustomer, 1)
	require.NoError(t, err)
	require.Equal(t, "earlier", st.Rows[0].Description)
	require.True(t, st.Rows[0].Running.Equal(dec(200)))
	require.Equal(t, "later", st.Rows[1].Description)
	require.True(t, st.Rows[1].Running.Equal(dec(300)))
}

func TestStatementReportsDrift(t *testing.T) {
	repo := &fakePartiesRepo{
		parties: map[int64]Party{
			1: {ID: 1, Kind: KindCustomer, Code: "CUST-1", Name: "Acme Retail", Balance: dec(900)},
		},
		lines: map[int64][]StatementLine{
			1: {{Date: day(1), LineID: 1, Description: "Invoice INV-1", Debit: dec(1000)}},
		},
	}
	service := NewService(repo)

	st, err := service.Statement(context.Background(), KindCustomer, 1)
	require.NoError(t, err)
	require.True(t, st.Drift.Equal(dec(100)))
	require.False(t, st.Consistent())
}

func TestServiceValidatesKindAndFields(t *testing.T) {
	repo := &fakePartiesRepo{parties: map[int64]Party{}}
	service := NewService(repo)

	_, err := service.List(context.Background(), Kind("VENDOR"), "")
	require.ErrorIs(t, err, ErrInvalidKind)

	_, err = service.Get(context.Background(), Kind("VENDOR"), 1)
	require.ErrorIs(t, err, ErrInvalidKind)

	_, err = service.Create(context.Background(), Party{Kind: KindCustomer, Code: "  ", Name: "Acme"})
	require.Error(t, err)

	created, err := service.Create(context.Background(), Party{Kind: KindCustomer, Code: " CUST-1 ", Name: " Acme "})
	require.NoError(t, err)
	require.Equal(t, "CUST-1", created.Code)
	require.Equal(t, "Acme", created.Name)
}

func TestStatementUnknownParty(t *testing.T) {
	repo := &fakePartiesRepo{parties: map[int64]Party{}}
	service := NewService(repo)

	_, err := service.Statement(context.Background(), KindCustomer, 42)
	require.ErrorIs(t, err, ErrPartyNotFound)
}
