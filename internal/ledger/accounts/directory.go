package accounts

import (
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// Directory resolves account codes to identifiers and answers type
// lookups for posted lines. It is an immutable snapshot of the chart of
// accounts; rebuild it after setup changes.
type Directory struct {
	byCode map[string]Account
	byID   map[int64]Account
}

// NewDirectory indexes the chart of accounts and verifies its structural
// invariants: unique codes, and non-parent accounts typed consistently
// with their ancestor chain.
func NewDirectory(list []Account) (*Directory, error) {
	d := &Directory{
		byCode: make(map[string]Account, len(list)),
		byID:   make(map[int64]Account, len(list)),
	}
	for _, acc := range list {
		if _, dup := d.byCode[acc.Code]; dup {
			return nil, fmt.Errorf("ledger: duplicate account code %s", acc.Code)
		}
		d.byCode[acc.Code] = acc
		d.byID[acc.ID] = acc
	}
	for _, acc := range list {
		if acc.IsParent {
			continue
		}
		for parentID := acc.ParentID; parentID != nil; {
			parent, ok := d.byID[*parentID]
			if !ok {
				return nil, fmt.Errorf("ledger: account %s references missing parent %d", acc.Code, *parentID)
			}
			if parent.Type != acc.Type {
				return nil, fmt.Errorf("ledger: account %s type %s conflicts with ancestor %s type %s",
					acc.Code, acc.Type, parent.Code, parent.Type)
			}
			parentID = parent.ParentID
		}
	}
	return d, nil
}

// Resolve translates an account code into its identifier.
func (d *Directory) Resolve(code string) (int64, error) {
	acc, ok := d.byCode[code]
	if !ok {
		return 0, shared.ErrAccountNotFound
	}
	return acc.ID, nil
}

// TypeOf returns the account type for a known identifier.
func (d *Directory) TypeOf(id int64) (AccountType, error) {
	acc, ok := d.byID[id]
	if !ok {
		return "", shared.ErrAccountNotFound
	}
	return acc.Type, nil
}

// Get returns the full account for an identifier.
func (d *Directory) Get(id int64) (Account, error) {
	acc, ok := d.byID[id]
	if !ok {
		return Account{}, shared.ErrAccountNotFound
	}
	return acc, nil
}

// Require resolves a mandated code, converting absence into the fatal
// setup error the posting services must not recover from.
func (d *Directory) Require(code string) (int64, error) {
	acc, ok := d.byCode[code]
	if !ok || !acc.IsActive || acc.IsParent {
		return 0, &shared.AccountNotConfiguredError{Code: code}
	}
	return acc.ID, nil
}
