package statements

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Service builds the three financial statements from aggregated account
// balances. Builds are cached in Redis and deduplicated with singleflight
// so a burst of identical requests after an invalidation runs one query.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) TrialBalance(ctx context.Context, period Period) (TrialBalance, error) {
	var tb TrialBalance
	err := s.fetch(ctx, "tb", period, &tb, func(accounts []AccountBalance) interface{} {
		return BuildTrialBalance(accounts)
	})
	return tb, err
}

func (s *Service) IncomeStatement(ctx context.Context, period Period) (IncomeStatement, error) {
	var is IncomeStatement
	err := s.fetch(ctx, "pl", period, &is, func(accounts []AccountBalance) interface{} {
		return BuildIncomeStatement(accounts)
	})
	return is, err
}

func (s *Service) BalanceSheet(ctx context.Context, period Period) (BalanceSheet, error) {
	var bs BalanceSheet
	err := s.fetch(ctx, "bs", period, &bs, func(accounts []AccountBalance) interface{} {
		return BuildBalanceSheet(accounts)
	})
	return bs, err
}

func (s *Service) fetch(ctx context.Context, name string, period Period, dest interface{}, build func([]AccountBalance) interface{}) error {
	key, err := s.cache.BuildKey(ctx, "statements", name, periodToken(period))
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, func(ctx context.Context) (interface{}, error) {
		result, err, _ := s.group.Do(key, func() (interface{}, error) {
			accounts, err := s.repo.AccountBalances(ctx, period)
			if err != nil {
				return nil, err
			}
			return build(accounts), nil
		})
		return result, err
	})
}

func periodToken(p Period) string {
	const layout = "2006-01-02"
	from, to := "begin", "now"
	if !p.From.IsZero() {
		from = p.From.Format(layout)
	}
	if !p.To.IsZero() {
		to = p.To.Format(layout)
	}
	return from + ".." + to
}
