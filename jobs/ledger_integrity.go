package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/ledger/journal"
)

// LedgerIntegrityJob replays the ledger invariants on a schedule so a
// posting bug surfaces within hours instead of at period close.
type LedgerIntegrityJob struct {
	checker *journal.IntegrityChecker
	logger  *slog.Logger
}

func NewLedgerIntegrityJob(checker *journal.IntegrityChecker, logger *slog.Logger) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{checker: checker, logger: logger}
}

// Handle processes TaskLedgerIntegrity tasks.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LedgerIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	report, err := j.checker.Check(ctx)
	if err != nil {
		j.logger.Error("ledger integrity scan failed", slog.Any("error", err))
		return err
	}
	if !report.Healthy() {
		j.logger.Error("ledger integrity violated",
			slog.String("total_debit", report.TotalDebit),
			slog.String("total_credit", report.TotalCredit),
			slog.Bool("balanced", report.Balanced),
			slog.Int("party_drifts", len(report.PartyDrifts)))
		return nil
	}
	j.logger.Info("ledger integrity ok",
		slog.String("total_debit", report.TotalDebit),
		slog.String("total_credit", report.TotalCredit))
	return nil
}
