package reporting

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// RepositoryPort exposes the read-only aggregates the service composes.
type RepositoryPort interface {
	Totals(ctx context.Context, from, to time.Time) (Totals, error)
	DailySeries(ctx context.Context, from, to time.Time) ([]DailyPoint, error)
	MonthlySeries(ctx context.Context, months int) ([]MonthlyPoint, error)
	RecentSales(ctx context.Context, limit int) ([]SaleSummary, error)
	LowStock(ctx context.Context) ([]LowStockItem, error)
	WalletTotal(ctx context.Context) (int64, error)
}

// Service coordinates report queries with the cache layer. Everything here
// is a read; the ledger is never mutated.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService wires a repository with a cache helper.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

const dayFormat = "2006-01-02"

// WindowTotals returns cached totals for the window.
func (s *Service) WindowTotals(ctx context.Context, from, to time.Time) (Totals, error) {
	key, err := s.cache.BuildKey(ctx, keyTotals(from.Format(dayFormat), to.Format(dayFormat)))
	if err != nil {
		return Totals{}, err
	}
	var totals Totals
	err = s.cache.FetchJSON(ctx, key, &totals, func(ctx context.Context) (interface{}, error) {
		return s.repo.Totals(ctx, from, to)
	})
	return totals, err
}

// DailyReport returns the cached per-day series for the window.
func (s *Service) DailyReport(ctx context.Context, from, to time.Time) ([]DailyPoint, error) {
	key, err := s.cache.BuildKey(ctx, keyDaily(from.Format(dayFormat), to.Format(dayFormat)))
	if err != nil {
		return nil, err
	}
	var series []DailyPoint
	err = s.cache.FetchJSON(ctx, key, &series, func(ctx context.Context) (interface{}, error) {
		return s.repo.DailySeries(ctx, from, to)
	})
	return series, err
}

// MonthlyReport returns the cached per-month series.
func (s *Service) MonthlyReport(ctx context.Context, months int) ([]MonthlyPoint, error) {
	if months <= 0 {
		months = 12
	}
	key, err := s.cache.BuildKey(ctx, keyMonthly(months))
	if err != nil {
		return nil, err
	}
	var series []MonthlyPoint
	err = s.cache.FetchJSON(ctx, key, &series, func(ctx context.Context) (interface{}, error) {
		return s.repo.MonthlySeries(ctx, months)
	})
	return series, err
}

// Dashboard assembles the landing snapshot; the independent aggregates load
// in parallel.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	now := time.Now().UTC()
	dayStart := now.Truncate(24 * time.Hour)

	var dash Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		totals, err := s.WindowTotals(gctx, dayStart, dayStart.Add(24*time.Hour))
		dash.Totals = totals
		return err
	})
	g.Go(func() error {
		total, err := s.repo.WalletTotal(gctx)
		dash.WalletTotal = total
		return err
	})
	g.Go(func() error {
		items, err := s.repo.LowStock(gctx)
		dash.LowStock = items
		return err
	})
	g.Go(func() error {
		sales, err := s.repo.RecentSales(gctx, 10)
		dash.RecentSales = sales
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return dash, nil
}

// SalesList returns the newest sales for the report page, uncached.
func (s *Service) SalesList(ctx context.Context, limit int) ([]SaleSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.RecentSales(ctx, limit)
}

// LowStockList returns products needing restock, uncached.
func (s *Service) LowStockList(ctx context.Context) ([]LowStockItem, error) {
	return s.repo.LowStock(ctx)
}

// Invalidate bumps the cache version after bulk ledger changes.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
