package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/parties"
)

// AuditPort records who posted what.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// MetricsPort observes posting outcomes.
type MetricsPort interface {
	ObservePosting(sourceModule string, err error)
}

// CacheInvalidator is notified after a successful commit so read-side
// caches (statements) drop stale snapshots.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// InTxFn runs inside the posting transaction after the entry and all its
// side effects are written; returning an error rolls the whole unit back.
type InTxFn func(ctx context.Context, tx TxRepository, entry Entry) error

// PosterConfig groups optional settings.
type PosterConfig struct {
	AllowNegativeStock bool
}

// Poster atomically persists a journal entry plus its lines and applies
// the resulting balance deltas and inventory movements. Either everything
// commits or nothing does; balances are never observably inconsistent
// with posted entries.
type Poster struct {
	repo       Repository
	audit      AuditPort
	metrics    MetricsPort
	invalidate CacheInvalidator
	allowNeg   bool
	now        func() time.Time
}

// NewPoster builds a Poster.
func NewPoster(repo Repository, audit AuditPort, cfg PosterConfig) *Poster {
	return &Poster{repo: repo, audit: audit, allowNeg: cfg.AllowNegativeStock, now: time.Now}
}

// WithMetrics attaches posting metrics.
func (p *Poster) WithMetrics(m MetricsPort) *Poster {
	p.metrics = m
	return p
}

// WithInvalidator attaches a read-side cache invalidator.
func (p *Poster) WithInvalidator(inv CacheInvalidator) *Poster {
	p.invalidate = inv
	return p
}

// WithNow overrides the clock, for tests.
func (p *Poster) WithNow(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// List returns posted entries, most recent number first.
func (p *Poster) List(ctx context.Context) ([]Entry, error) {
	return p.repo.List(ctx)
}

// Get returns one entry with its lines.
func (p *Poster) Get(ctx context.Context, entryID int64) (Entry, error) {
	entry, lines, err := p.repo.GetEntryWithLines(ctx, entryID)
	if err != nil {
		return Entry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

// AccountLedger projects the running balance over an account's posted
// lines, ordered by (date, entry number, line id).
func (p *Poster) AccountLedger(ctx context.Context, accountID int64) ([]AccountLine, []decimal.Decimal, error) {
	lines, err := p.repo.ListAccountLines(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	running := make([]decimal.Decimal, len(lines))
	balance := decimal.Zero
	for i, line := range lines {
		balance = balance.Add(line.Debit).Sub(line.Credit)
		running[i] = balance
	}
	return lines, running, nil
}

// Post commits one posting input as a single atomic unit.
func (p *Poster) Post(ctx context.Context, in PostingInput) (Entry, error) {
	return p.PostWith(ctx, in, nil)
}

// PostWith is Post with an extra step executed inside the same
// transaction, used by callers whose own state must flip atomically with
// the ledger effect (adjustment approval).
func (p *Poster) PostWith(ctx context.Context, in PostingInput, within InTxFn) (Entry, error) {
	totals, err := ValidateLines(in.Lines)
	if err != nil {
		p.observe(in.SourceModule, err)
		return Entry{}, err
	}
	if err := validateSideEffects(in); err != nil {
		p.observe(in.SourceModule, err)
		return Entry{}, err
	}

	entry, err := p.attempt(ctx, in, totals, within)
	if IsSerializationFailure(err) {
		// One automatic retry with fresh reads, then surface the conflict.
		entry, err = p.attempt(ctx, in, totals, within)
		if IsSerializationFailure(err) {
			err = shared.ErrConcurrentBalanceConflict
		}
	}
	p.observe(in.SourceModule, err)
	if err != nil {
		return Entry{}, err
	}

	if p.invalidate != nil {
		_ = p.invalidate.Bump(ctx)
	}
	if p.audit != nil {
		_ = p.audit.Record(ctx, internalShared.AuditLog{
			ActorID:  in.PostedBy,
			Action:   "journal.post",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"number":        entry.Number,
				"source_module": in.SourceModule,
				"source_id":     in.SourceID.String(),
			},
			At: p.now(),
		})
	}
	return entry, nil
}

func (p *Poster) attempt(ctx context.Context, in PostingInput, totals Totals, within InTxFn) (Entry, error) {
	var entry Entry
	err := p.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.InsertEntry(ctx, in, totals)
		if err != nil {
			return err
		}
		lines, err := tx.InsertLines(ctx, inserted.ID, in.Lines)
		if err != nil {
			return err
		}
		if in.SourceModule != "" && in.SourceID != uuid.Nil {
			if err := tx.LinkSource(ctx, in.SourceModule, in.SourceID, inserted.ID); err != nil {
				return err
			}
		}
		for _, effect := range in.PartyEffects {
			party, err := tx.GetPartyForUpdate(ctx, effect.Kind, effect.PartyID)
			if err != nil {
				return err
			}
			if err := tx.UpdatePartyBalance(ctx, effect.Kind, effect.PartyID, party.Balance.Add(effect.Delta)); err != nil {
				return err
			}
		}
		postedAt := p.now().UTC()
		for _, m := range in.Movements {
			if err := p.applyMovement(ctx, tx, inserted.ID, m, postedAt); err != nil {
				return err
			}
		}
		inserted.Lines = lines
		if within != nil {
			if err := within(ctx, tx, inserted); err != nil {
				return err
			}
		}
		entry = inserted
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (p *Poster) applyMovement(ctx context.Context, tx TxRepository, entryID int64, m inventory.MovementInput, postedAt time.Time) error {
	product, err := tx.GetProductForUpdate(ctx, m.ProductID)
	if err != nil {
		return err
	}
	newQty := product.QtyOnHand.Add(m.Quantity)
	if !p.allowNeg && newQty.IsNegative() {
		return inventory.ErrNegativeStock
	}
	product.QtyOnHand = newQty
	if m.Type.CountsTowardAverage() {
		product.ReceivedQty = product.ReceivedQty.Add(m.Quantity)
		product.ReceivedCost = product.ReceivedCost.Add(m.TotalCost)
	}
	if err := tx.InsertMovement(ctx, entryID, m, postedAt); err != nil {
		return err
	}
	return tx.UpdateProductStock(ctx, product)
}

// Reverse creates a reversing entry mirroring a posted entry's lines,
// party effects, and movements, and marks the original cancelled. The
// original is never mutated beyond its status.
func (p *Poster) Reverse(ctx context.Context, in ReverseInput) (Entry, error) {
	if in.EntryID == 0 {
		return Entry{}, shared.ErrJournalNotFound
	}
	original, lines, err := p.repo.GetEntryWithLines(ctx, in.EntryID)
	if err != nil {
		return Entry{}, err
	}
	if original.Status != StatusPosted {
		return Entry{}, shared.ErrInvalidStatus
	}
	movements, err := p.repo.ListMovementsForEntry(ctx, in.EntryID)
	if err != nil {
		return Entry{}, err
	}

	posting := PostingInput{
		Description:  reversalMemo(in.Memo, original.Number),
		Date:         p.now().UTC(),
		SourceModule: original.SourceModule + ":REVERSAL",
		SourceID:     uuid.New(),
		PostedBy:     in.ActorID,
		Lines:        mirrorLines(lines),
		PartyEffects: negatedEffects(lines),
		Movements:    negatedMovements(movements),
	}
	reversal, err := p.PostWith(ctx, posting, func(ctx context.Context, tx TxRepository, entry Entry) error {
		return tx.MarkCancelled(ctx, original.ID, entry.ID)
	})
	if err != nil {
		return Entry{}, err
	}
	if p.audit != nil {
		_ = p.audit.Record(ctx, internalShared.AuditLog{
			ActorID:  in.ActorID,
			Action:   "journal.reverse",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", original.ID),
			Meta: map[string]any{
				"reversal_id":     reversal.ID,
				"reversal_number": reversal.Number,
			},
			At: p.now(),
		})
	}
	return reversal, nil
}

func (p *Poster) observe(module string, err error) {
	if p.metrics != nil {
		p.metrics.ObservePosting(module, err)
	}
}

func validateSideEffects(in PostingInput) error {
	for _, effect := range in.PartyEffects {
		if !effect.Kind.Valid() {
			return parties.ErrInvalidKind
		}
		if effect.PartyID == 0 {
			return parties.ErrPartyNotFound
		}
	}
	for _, m := range in.Movements {
		if !m.Type.Valid() {
			return inventory.ErrInvalidQuantity
		}
		if m.ProductID == 0 {
			return inventory.ErrProductNotFound
		}
		if m.Quantity.IsZero() {
			return inventory.ErrInvalidQuantity
		}
	}
	return nil
}

func mirrorLines(lines []Line) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		var kind *parties.Kind
		if line.PartyKind != nil {
			k := parties.Kind(*line.PartyKind)
			kind = &k
		}
		out = append(out, LineInput{
			AccountID: line.AccountID,
			Debit:     line.Credit,
			Credit:    line.Debit,
			PartyKind: kind,
			PartyID:   line.PartyID,
		})
	}
	return out
}

// negatedEffects derives the reversal's party deltas from the original
// party-attributed lines: the net effect of a line on a customer is
// debit-credit, on a supplier credit-debit; the reversal applies the
// negation.
func negatedEffects(lines []Line) []PartyEffect {
	totals := make(map[string]*PartyEffect)
	var order []string
	for _, line := range lines {
		if line.PartyKind == nil || line.PartyID == nil {
			continue
		}
		kind := parties.Kind(*line.PartyKind)
		delta := line.Debit.Sub(line.Credit)
		if kind == parties.KindSupplier {
			delta = line.Credit.Sub(line.Debit)
		}
		key := fmt.Sprintf("%s:%d", kind, *line.PartyID)
		effect, ok := totals[key]
		if !ok {
			effect = &PartyEffect{Kind: kind, PartyID: *line.PartyID, Delta: decimal.Zero}
			totals[key] = effect
			order = append(order, key)
		}
		effect.Delta = effect.Delta.Sub(delta)
	}
	out := make([]PartyEffect, 0, len(order))
	for _, key := range order {
		out = append(out, *totals[key])
	}
	return out
}

func negatedMovements(movements []inventory.Movement) []inventory.MovementInput {
	out := make([]inventory.MovementInput, 0, len(movements))
	for _, m := range movements {
		out = append(out, inventory.MovementInput{
			ProductID: m.ProductID,
			Type:      m.Type,
			Quantity:  m.Quantity.Neg(),
			TotalCost: m.TotalCost.Neg(),
		})
	}
	return out
}

func reversalMemo(memo string, number int64) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of JE %d", number)
}
