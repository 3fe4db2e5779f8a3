package journal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/parties"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

var errBoom = errors.New("boom")

type partyKey struct {
	kind parties.Kind
	id   int64
}

// storeState holds everything a posting can touch. WithTx clones it,
// runs the transaction against the clone, and swaps it in only on
// success, so a mid-transaction failure leaves the original untouched.
type storeState struct {
	entries   map[int64]Entry
	order     []int64
	lines     map[int64][]Line
	movements map[int64][]inventory.Movement
	parties   map[partyKey]parties.Party
	products  map[int64]inventory.Product
	links     map[string]int64
	nextEntry int64
	nextLine  int64
}

func newStoreState() *storeState {
	return &storeState{
		entries:   map[int64]Entry{},
		lines:     map[int64][]Line{},
		movements: map[int64][]inventory.Movement{},
		parties:   map[partyKey]parties.Party{},
		products:  map[int64]inventory.Product{},
		links:     map[string]int64{},
	}
}

func (s *storeState) clone() *storeState {
	out := newStoreState()
	out.nextEntry = s.nextEntry
	out.nextLine = s.nextLine
	for id, e := range s.entries {
		out.entries[id] = e
	}
	out.order = append(out.order, s.order...)
	for id, ls := range s.lines {
		out.lines[id] = append([]Line(nil), ls...)
	}
	for id, ms := range s.movements {
		out.movements[id] = append([]inventory.Movement(nil), ms...)
	}
	for k, p := range s.parties {
		out.parties[k] = p
	}
	for id, p := range s.products {
		out.products[id] = p
	}
	for k, v := range s.links {
		out.links[k] = v
	}
	return out
}

// fakeRepo injects failures by step name: failOn aborts that step with
// errBoom, serialFails makes the named step raise a retryable conflict
// the first N times it runs.
type fakeRepo struct {
	state         *storeState
	failOn        string
	serialOn      string
	serialRemains int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{state: newStoreState()}
}

func (f *fakeRepo) List(ctx context.Context) ([]Entry, error) {
	out := make([]Entry, 0, len(f.state.order))
	for i := len(f.state.order) - 1; i >= 0; i-- {
		out = append(out, f.state.entries[f.state.order[i]])
	}
	return out, nil
}

func (f *fakeRepo) GetEntryWithLines(ctx context.Context, entryID int64) (Entry, []Line, error) {
	entry, ok := f.state.entries[entryID]
	if !ok {
		return Entry{}, nil, shared.ErrJournalNotFound
	}
	return entry, append([]Line(nil), f.state.lines[entryID]...), nil
}

func (f *fakeRepo) ListMovementsForEntry(ctx context.Context, entryID int64) ([]inventory.Movement, error) {
	return append([]inventory.Movement(nil), f.state.movements[entryID]...), nil
}

func (f *fakeRepo) ListAccountLines(ctx context.Context, accountID int64) ([]AccountLine, error) {
	var out []AccountLine
	for _, id := range f.state.order {
		entry := f.state.entries[id]
		for _, line := range f.state.lines[id] {
			if line.AccountID != accountID {
				continue
			}
			out = append(out, AccountLine{
				Date:        entry.Date,
				EntryID:     entry.ID,
				EntryNumber: entry.Number,
				LineID:      line.ID,
				Description: entry.Description,
				Debit:       line.Debit,
				Credit:      line.Credit,
			})
		}
	}
	return out, nil
}

func (f *fakeRepo) LedgerTotals(ctx context.Context) (Totals, error) {
	t := Totals{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, ls := range f.state.lines {
		for _, line := range ls {
			t.Debit = t.Debit.Add(line.Debit)
			t.Credit = t.Credit.Add(line.Credit)
		}
	}
	return t, nil
}

func (f *fakeRepo) ListPartyDrifts(ctx context.Context) ([]PartyDrift, error) {
	var drifts []PartyDrift
	for key, party := range f.state.parties {
		replayed := decimal.Zero
		for _, ls := range f.state.lines {
			for _, line := range ls {
				if line.PartyKind == nil || line.PartyID == nil {
					continue
				}
				if parties.Kind(*line.PartyKind) != key.kind || *line.PartyID != key.id {
					continue
				}
				delta := line.Debit.Sub(line.Credit)
				if key.kind == parties.KindSupplier {
					delta = line.Credit.Sub(line.Debit)
				}
				replayed = replayed.Add(delta)
			}
		}
		if !party.Balance.Equal(replayed) {
			drifts = append(drifts, PartyDrift{Kind: key.kind, PartyID: key.id, Code: party.Code, Stored: party.Balance, Replayed: replayed})
		}
	}
	return drifts, nil
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	work := f.state.clone()
	if err := fn(ctx, &fakeTx{repo: f, st: work}); err != nil {
		return err
	}
	f.state = work
	return nil
}

type fakeTx struct {
	repo *fakeRepo
	st   *storeState
}

func (t *fakeTx) step(name string) error {
	if t.repo.serialOn == name && t.repo.serialRemains > 0 {
		t.repo.serialRemains--
		return &pgconn.PgError{Code: "40001"}
	}
	if t.repo.failOn == name {
		return errBoom
	}
	return nil
}

func (t *fakeTx) InsertEntry(ctx context.Context, in PostingInput, totals Totals) (Entry, error) {
	if err := t.step("InsertEntry"); err != nil {
		return Entry{}, err
	}
	t.st.nextEntry++
	entry := Entry{
		ID:           t.st.nextEntry,
		Number:       t.st.nextEntry,
		Description:  in.Description,
		Date:         in.Date,
		SourceModule: in.SourceModule,
		SourceID:     in.SourceID,
		TotalDebit:   totals.Debit,
		TotalCredit:  totals.Credit,
		Status:       StatusPosted,
		PostedBy:     in.PostedBy,
	}
	t.st.entries[entry.ID] = entry
	t.st.order = append(t.st.order, entry.ID)
	return entry, nil
}

func (t *fakeTx) InsertLines(ctx context.Context, entryID int64, lines []LineInput) ([]Line, error) {
	if err := t.step("InsertLines"); err != nil {
		return nil, err
	}
	out := make([]Line, 0, len(lines))
	for _, in := range lines {
		t.st.nextLine++
		var kind *string
		if in.PartyKind != nil {
			s := string(*in.PartyKind)
			kind = &s
		}
		line := Line{
			ID:        t.st.nextLine,
			EntryID:   entryID,
			AccountID: in.AccountID,
			Debit:     in.Debit,
			Credit:    in.Credit,
			PartyKind: kind,
			PartyID:   in.PartyID,
		}
		t.st.lines[entryID] = append(t.st.lines[entryID], line)
		out = append(out, line)
	}
	return out, nil
}

func (t *fakeTx) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	if err := t.step("LinkSource"); err != nil {
		return err
	}
	key := module + ":" + ref.String()
	if _, dup := t.st.links[key]; dup {
		return shared.ErrSourceAlreadyLinked
	}
	t.st.links[key] = entryID
	return nil
}

func (t *fakeTx) GetEntryWithLines(ctx context.Context, entryID int64) (Entry, []Line, error) {
	entry, ok := t.st.entries[entryID]
	if !ok {
		return Entry{}, nil, shared.ErrJournalNotFound
	}
	return entry, append([]Line(nil), t.st.lines[entryID]...), nil
}

func (t *fakeTx) MarkCancelled(ctx context.Context, entryID, reversalID int64) error {
	if err := t.step("MarkCancelled"); err != nil {
		return err
	}
	entry, ok := t.st.entries[entryID]
	if !ok || entry.Status != StatusPosted {
		return shared.ErrInvalidStatus
	}
	entry.Status = StatusCancelled
	entry.ReversedBy = &reversalID
	t.st.entries[entryID] = entry
	return nil
}

func (t *fakeTx) GetPartyForUpdate(ctx context.Context, kind parties.Kind, id int64) (parties.Party, error) {
	if err := t.step("GetPartyForUpdate"); err != nil {
		return parties.Party{}, err
	}
	p, ok := t.st.parties[partyKey{kind: kind, id: id}]
	if !ok {
		return parties.Party{}, parties.ErrPartyNotFound
	}
	return p, nil
}

func (t *fakeTx) UpdatePartyBalance(ctx context.Context, kind parties.Kind, id int64, balance decimal.Decimal) error {
	if err := t.step("UpdatePartyBalance"); err != nil {
		return err
	}
	key := partyKey{kind: kind, id: id}
	p, ok := t.st.parties[key]
	if !ok {
		return parties.ErrPartyNotFound
	}
	p.Balance = balance
	t.st.parties[key] = p
	return nil
}

func (t *fakeTx) GetProductForUpdate(ctx context.Context, id int64) (inventory.Product, error) {
	if err := t.step("GetProductForUpdate"); err != nil {
		return inventory.Product{}, err
	}
	p, ok := t.st.products[id]
	if !ok {
		return inventory.Product{}, inventory.ErrProductNotFound
	}
	return p, nil
}

func (t *fakeTx) UpdateProductStock(ctx context.Context, product inventory.Product) error {
	if err := t.step("UpdateProductStock"); err != nil {
		return err
	}
	if _, ok := t.st.products[product.ID]; !ok {
		return inventory.ErrProductNotFound
	}
	t.st.products[product.ID] = product
	return nil
}

func (t *fakeTx) InsertMovement(ctx context.Context, entryID int64, m inventory.MovementInput, postedAt time.Time) error {
	if err := t.step("InsertMovement"); err != nil {
		return err
	}
	t.st.movements[entryID] = append(t.st.movements[entryID], inventory.Movement{
		ID:             int64(len(t.st.movements[entryID]) + 1),
		ProductID:      m.ProductID,
		JournalEntryID: entryID,
		Type:           m.Type,
		Quantity:       m.Quantity,
		TotalCost:      m.TotalCost,
		PostedAt:       postedAt,
	})
	return nil
}

func (t *fakeTx) MarkAdjustmentApproved(ctx context.Context, adjustmentID, entryID int64, at time.Time) error {
	return t.step("MarkAdjustmentApproved")
}

func seedRepo() *fakeRepo {
	repo := newFakeRepo()
	repo.state.parties[partyKey{kind: parties.KindCustomer, id: 1}] = parties.Party{
		ID: 1, Kind: parties.KindCustomer, Code: "CUST-1", Name: "Acme Retail", Balance: dec(1000),
	}
	repo.state.products[7] = inventory.Product{
		ID: 7, Code: "SKU-7", Name: "Widget",
		QtyOnHand: dec(10), ReceivedQty: dec(10), ReceivedCost: dec(500),
	}
	return repo
}

func customerKind() *parties.Kind {
	k := parties.KindCustomer
	return &k
}

func salePosting() PostingInput {
	partyID := int64(1)
	return PostingInput{
		Description:  "Invoice INV-1",
		Date:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		SourceModule: "ar.invoice",
		SourceID:     uuid.New(),
		PostedBy:     9,
		Lines: []LineInput{
			{AccountID: 4, Debit: dec(500), PartyKind: customerKind(), PartyID: &partyID},
			{AccountID: 6, Credit: dec(500)},
			{AccountID: 8, Debit: dec(100)},
			{AccountID: 3, Credit: dec(100)},
		},
		PartyEffects: []PartyEffect{{Kind: parties.KindCustomer, PartyID: 1, Delta: dec(500)}},
		Movements: []inventory.MovementInput{
			{ProductID: 7, Type: inventory.MovementSale, Quantity: dec(-2), TotalCost: dec(-100)},
		},
	}
}

func TestPostCommitsEntryBalancesAndMovements(t *testing.T) {
	repo := seedRepo()
	poster := NewPoster(repo, nil, PosterConfig{})

	entry, err := poster.Post(context.Background(), salePosting())
	require.NoError(t, err)
	require.Equal(t, StatusPosted, entry.Status)
	require.True(t, entry.TotalDebit.Equal(dec(600)))
	require.True(t, entry.TotalCredit.Equal(dec(600)))
	require.Len(t, entry.Lines, 4)

	party := repo.state.parties[partyKey{kind: parties.KindCustomer, id: 1}]
	require.True(t, party.Balance.Equal(dec(1500)))

	product := repo.state.products[7]
	require.True(t, product.QtyOnHand.Equal(dec(8)))
	// A sale consumes the average without restating it.
	require.True(t, product.AverageCost().Equal(dec(50)))
	require.Len(t, repo.state.movements[entry.ID], 1)
}

func TestPostRejectsUnbalancedEntry(t *testing.T) {
	repo := seedRepo()
	poster := NewPoster(repo, nil, PosterConfig{})

	in := salePosting()
	in.Lines[1].Credit = dec(499)

	_, err := poster.Post(context.Background(), in)
	var unbalanced *shared.UnbalancedError
	require.ErrorAs(t, err, &unbalanced)
	require.True(t, unbalanced.Delta().Equal(dec(1)))
	require.Empty(t, repo.state.entries)
}

func TestPostRejectsDuplicateSourceLink(t *testing.T) {
	repo := seedRepo()
	poster := NewPoster(repo, nil, PosterConfig{})

	in := salePosting()
	_, err := poster.Post(context.Background(), in)
	require.NoError(t, err)

	in.PartyEffects = nil
	in.Movements = nil
	_, err = poster.Post(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)
	require.Len(t, repo.state.entries, 1)
}

// TestPostRollsBackOnFailureAtEachStep drives the same posting through
// a failure injected at every persistence step in turn and asserts the
// observable state afterwards is exactly the pre-posting state.
func TestPostRollsBackOnFailureAtEachStep(t *testing.T) {
	steps := []string{
		"InsertEntry",
		"InsertLines",
		"LinkSource",
		"GetPartyForUpdate",
		"UpdatePartyBalance",
		"GetProductForUpdate",
		"InsertMovement",
		"UpdateProductStock",
	}
	for _, step := range steps {
		t.Run(step, func(t *testing.T) {
			repo := seedRepo()
			repo.failOn = step
			poster := NewPoster(repo, nil, PosterConfig{})

			_, err := poster.Post(context.Background(), salePosting())
			require.ErrorIs(t, err, errBoom)

			require.Empty(t, repo.state.entries)
			require.Empty(t, repo.state.links)
			party := repo.state.parties[partyKey{kind: parties.KindCustomer, id: 1}]
			require.True(t, party.Balance.Equal(dec(1000)), "balance leaked at %s: %s", step, party.Balance)
			product := repo.state.products[7]
			require.True(t, product.QtyOnHand.Equal(dec(10)), "stock leaked at %s: %s", step, product.QtyOnHand)
			require.Empty(t, repo.state.movements)
		})
	}
}

func TestPostWithRollsBackWhenInTxStepFails(t *testing.T) {
	repo := seedRepo()
	poster := NewPoster(repo, nil, PosterConfig{})

	_, err := poster.PostWith(context.Background(), salePosting(), func(ctx context.Context, tx TxRepository, entry Entry) error {
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	require.Empty(t, repo.state.entries)
	party := repo.state.parties[partyKey{kind: parties.KindCustomer, id: 1}]
	require.True(t, party.Balance.Equal(dec(1000)))
}

func TestPostRetriesOnceOnSerializationFailure(t *testing.T) {
	repo := seedRepo()
	repo.serialOn = "UpdatePartyBalance"
	repo.serialRemains = 1
	poster := NewPoster(repo, nil, PosterConfig{})

	entry, err := poster.Post(context.Background(), salePosting())
	require.NoError(t, err)
	require.NotZero(t, entry.ID)
	party := repo.state.parties[partyKey{kind: parties.KindCustomer, id: 1}]
	require.True(t, party.Balance.Equal(dec(1500)))
}

func TestPostSurfacesConflictAfterSecondSerializationFailure(t *testing.T) {
	repo := seedRepo()
	repo.serialOn = "UpdatePartyBalance"
	repo.serialRemains = 2
	poster := NewPoster(repo, nil, PosterConfig{})

	_, err := poster.Post(context.Background(), salePosting())
	require.ErrorIs(t, err, shared.ErrConcurrentBalanceConflict)
	require.Empty(t, repo.state.entries)
}

func TestPostRejectsNegativeStockByDefault(t *testing.T) {
	repo := seedRepo()
	poster := NewPoster(repo, nil, PosterConfig{})

	in := salePosting()
	in.Movements[0].Quantity = dec(-11)

	_, err := poster.Post(context.Background(), in)
	require.ErrorIs(t, err, inventory.ErrNegativeStock)
	require.Empty(t, repo.state.entries)
	require.True(t, repo.state.products[7].QtyOnHand.Equal(dec(10)))
}

func TestPostAllowsNegativeStockWhenEnabled(t *testing.T) {
	repo := seedRepo()
	poster := NewPoster(repo, nil, PosterConfig{AllowNegativeStock: true})

	in := salePosting()
	in.Movements[0].Quantity = dec(-11)

	_, err := poster.Post(context.Background(), in)
	require.NoError(t, err)
	require.True(t, repo.state.products[7].QtyOnHand.Equal(dec(-1)))
}

func TestReverseMirrorsLinesAndRestoresState(t *testing.T) {
	repo := seedRepo()
	poster := NewPoster(repo, nil, PosterConfig{})

	original, err := poster.Post(context.Background(), salePosting())
	require.NoError(t, err)

	reversal, err := poster.Reverse(context.Background(), ReverseInput{EntryID: original.ID, ActorID: 9})
	require.NoError(t, err)
	require.Equal(t, "ar.invoice:REVERSAL", reversal.SourceModule)
	require.Equal(t, fmt.Sprintf("Reversal of JE %d", original.Number), reversal.Description)

	cancelled := repo.state.entries[original.ID]
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.ReversedBy)
	require.Equal(t, reversal.ID, *cancelled.ReversedBy)

	originalLines := repo.state.lines[original.ID]
	reversalLines := repo.state.lines[reversal.ID]
	require.Len(t, reversalLines, len(originalLines))
	for i := range originalLines {
		require.Equal(t, originalLines[i].AccountID, reversalLines[i].AccountID)
		require.True(t, reversalLines[i].Debit.Equal(originalLines[i].Credit))
		require.True(t, reversalLines[i].Credit.Equal(originalLines[i].Debit))
	}

	party := repo.state.parties[partyKey{kind: parties.KindCustomer, id: 1}]
	require.True(t, party.Balance.Equal(dec(1000)))
	product := repo.state.products[7]
	require.True(t, product.QtyOnHand.Equal(dec(10)))
	require.True(t, product.AverageCost().Equal(dec(50)))
}

func TestReverseRejectsAlreadyCancelledEntry(t *testing.T) {
	repo := seedRepo()
	poster := NewPoster(repo, nil, PosterConfig{})

	original, err := poster.Post(context.Background(), salePosting())
	require.NoError(t, err)
	_, err = poster.Reverse(context.Background(), ReverseInput{EntryID: original.ID, ActorID: 9})
	require.NoError(t, err)

	_, err = poster.Reverse(context.Background(), ReverseInput{EntryID: original.ID, ActorID: 9})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestReversalPairKeepsLedgerTotalsBalanced(t *testing.T) {
	repo := seedRepo()
	poster := NewPoster(repo, nil, PosterConfig{})
	checker := NewIntegrityChecker(repo)

	original, err := poster.Post(context.Background(), salePosting())
	require.NoError(t, err)
	_, err = poster.Reverse(context.Background(), ReverseInput{EntryID: original.ID, ActorID: 9})
	require.NoError(t, err)

	report, err := checker.Check(context.Background())
	require.NoError(t, err)
	require.True(t, report.Healthy(), "drifts: %+v", report.PartyDrifts)
	require.Equal(t, "1200.00", report.TotalDebit)
	require.Equal(t, "1200.00", report.TotalCredit)
}

func TestAccountLedgerProjectsRunningBalance(t *testing.T) {
	repo := seedRepo()
	poster := NewPoster(repo, nil, PosterConfig{})

	first := salePosting()
	_, err := poster.Post(context.Background(), first)
	require.NoError(t, err)

	second := salePosting()
	second.SourceID = uuid.New()
	second.Lines[0].Debit = dec(200)
	second.Lines[1].Credit = dec(200)
	second.PartyEffects[0].Delta = dec(200)
	_, err = poster.Post(context.Background(), second)
	require.NoError(t, err)

	lines, running, err := poster.AccountLedger(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.True(t, running[0].Equal(dec(500)))
	require.True(t, running[1].Equal(dec(700)))
}
