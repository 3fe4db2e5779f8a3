package accounts

import (
	"context"
	"fmt"
)

// Service loads the chart of accounts and builds directory snapshots.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Directory builds a fresh directory snapshot from the stored chart.
func (s *Service) Directory(ctx context.Context) (*Directory, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewDirectory(list)
}

// Create adds an account after checking that the grown chart still
// indexes cleanly: unique code, known type, consistent ancestor types.
func (s *Service) Create(ctx context.Context, account Account) (Account, error) {
	if !account.Type.Valid() {
		return Account{}, fmt.Errorf("ledger: unknown account type %q", account.Type)
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return Account{}, err
	}
	account.ID = -1
	if _, err := NewDirectory(append(list, account)); err != nil {
		return Account{}, err
	}
	account.ID = 0
	return s.repo.Create(ctx, account)
}

// SetActive toggles whether an account accepts new postings. Historic
// lines keep referencing deactivated accounts.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}
