package adjustments

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/journal"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// BuildEntry converts an adjustment worksheet into the journal lines and
// stock movements its approval must post. Deficits expense the shrinkage
// (debit loss, credit inventory); surpluses book a gain (debit inventory,
// credit gain). Items whose counted quantity matches the system are
// skipped; a worksheet with nothing to correct cannot be approved.
func BuildEntry(adj Adjustment, dir *accounts.Directory) ([]journal.LineInput, []inventory.MovementInput, error) {
	inventoryID, err := dir.Require(accounts.CodeInventory)
	if err != nil {
		return nil, nil, err
	}
	lossID, err := dir.Require(accounts.CodeInventoryLoss)
	if err != nil {
		return nil, nil, err
	}
	gainID, err := dir.Require(accounts.CodeInventoryGain)
	if err != nil {
		return nil, nil, err
	}

	shortage := decimal.Zero
	surplus := decimal.Zero
	var movements []inventory.MovementInput
	for _, item := range adj.Items {
		delta := item.Delta()
		if delta.IsZero() {
			continue
		}
		value := delta.Mul(item.UnitCost)
		movementType := inventory.MovementAdjustmentIn
		if delta.IsNegative() {
			movementType = inventory.MovementAdjustmentOut
			shortage = shortage.Add(value.Neg())
		} else {
			surplus = surplus.Add(value)
		}
		movements = append(movements, inventory.MovementInput{
			ProductID: item.ProductID,
			Type:      movementType,
			Quantity:  delta,
			TotalCost: value,
		})
	}

	var lines []journal.LineInput
	if shortage.IsPositive() {
		lines = append(lines,
			journal.LineInput{AccountID: lossID, Debit: shortage},
			journal.LineInput{AccountID: inventoryID, Credit: shortage},
		)
	}
	if surplus.IsPositive() {
		lines = append(lines,
			journal.LineInput{AccountID: inventoryID, Debit: surplus},
			journal.LineInput{AccountID: gainID, Credit: surplus},
		)
	}
	if len(lines) == 0 {
		return nil, nil, shared.ErrNothingToPost
	}
	return lines, movements, nil
}
