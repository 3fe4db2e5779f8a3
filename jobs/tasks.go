package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity triggers a full-ledger consistency scan.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskInventoryAudit triggers a stock-versus-movement-log audit.
	TaskInventoryAudit = "inventory:audit"
)

// LedgerIntegrityPayload carries scheduling metadata for the ledger scan.
type LedgerIntegrityPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLedgerIntegrityTask constructs an Asynq task for the ledger scan.
func NewLedgerIntegrityTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LedgerIntegrityPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, body, asynq.Queue(QueueDefault)), nil
}

// InventoryAuditPayload carries scheduling metadata for the stock audit.
type InventoryAuditPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewInventoryAuditTask constructs an Asynq task for the stock audit.
func NewInventoryAuditTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(InventoryAuditPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInventoryAudit, body, asynq.Queue(QueueDefault)), nil
}
