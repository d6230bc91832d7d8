package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/haiderali7066/Grocery-store-ERP/internal/jobs"
	"github.com/haiderali7066/Grocery-store-ERP/internal/reporting"
)

// LowStockPort lists products needing restock.
type LowStockPort interface {
	LowStock(ctx context.Context) ([]reporting.LowStockItem, error)
}

// LowStockScanner handles TaskLowStockScan tasks.
type LowStockScanner struct {
	stock   LowStockPort
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewLowStockScanner constructs the task handler. metrics may be nil.
func NewLowStockScanner(stock LowStockPort, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanner {
	return &LowStockScanner{stock: stock, logger: logger, metrics: metrics}
}

// Handle logs every product at or under its threshold so the dashboard's
// restock banner has fresh material and operators see it in the logs.
func (s *LowStockScanner) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := s.metrics.Track(TaskLowStockScan)
	items, err := s.stock.LowStock(ctx)
	if err != nil {
		s.logger.Error("low stock scan failed", slog.Any("error", err))
		return tracker.End(err)
	}
	for _, item := range items {
		s.logger.Warn("low stock",
			slog.Int64("product_id", item.ProductID),
			slog.String("name", item.Name),
			slog.Int64("stock", item.Stock),
			slog.Int64("threshold", item.Threshold))
	}
	s.metrics.SetLowStock(len(items))
	s.logger.Info("low stock scan done", slog.Int("flagged", len(items)))
	return tracker.End(nil)
}
