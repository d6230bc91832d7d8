package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/haiderali7066/Grocery-store-ERP/internal/jobs"
	"github.com/haiderali7066/Grocery-store-ERP/internal/pos"
)

// SalePort is the slice of the pos service the submitter needs.
type SalePort interface {
	GetSale(ctx context.Context, id int64) (pos.Sale, error)
	UpdateFBRStatus(ctx context.Context, id int64, status pos.FBRStatus, invoiceNumber string) error
}

// SubmitPort files one sale with the tax authority.
type SubmitPort interface {
	SubmitSale(ctx context.Context, sale pos.Sale) (string, error)
}

// FBRSubmitter handles TaskFBRSubmit tasks.
type FBRSubmitter struct {
	sales   SalePort
	client  SubmitPort
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewFBRSubmitter constructs the task handler. metrics may be nil.
func NewFBRSubmitter(sales SalePort, client SubmitPort, logger *slog.Logger, metrics *jobmetrics.Metrics) *FBRSubmitter {
	return &FBRSubmitter{sales: sales, client: client, logger: logger, metrics: metrics}
}

// Handle submits the sale and records the outcome on it. A failed
// submission marks the sale failed and lets Asynq retry the task; a sale
// already marked success is skipped.
func (s *FBRSubmitter) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := s.metrics.Track(TaskFBRSubmit)
	var payload FBRSubmitPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	sale, err := s.sales.GetSale(ctx, payload.SaleID)
	if err != nil {
		s.logger.Error("fbr submit: load sale", slog.Int64("sale_id", payload.SaleID), slog.Any("error", err))
		return tracker.End(err)
	}
	if sale.FBRStatus == pos.FBRSuccess {
		return tracker.End(nil)
	}
	invoiceNumber, err := s.client.SubmitSale(ctx, sale)
	if err != nil {
		s.logger.Warn("fbr submit failed", slog.String("sale", sale.Number), slog.Any("error", err))
		if markErr := s.sales.UpdateFBRStatus(ctx, sale.ID, pos.FBRFailed, ""); markErr != nil {
			s.logger.Error("fbr submit: mark failed", slog.String("sale", sale.Number), slog.Any("error", markErr))
		}
		return tracker.End(err)
	}
	if err := s.sales.UpdateFBRStatus(ctx, sale.ID, pos.FBRSuccess, invoiceNumber); err != nil {
		s.logger.Error("fbr submit: mark success", slog.String("sale", sale.Number), slog.Any("error", err))
		return tracker.End(err)
	}
	s.logger.Info("fbr invoice filed", slog.String("sale", sale.Number), slog.String("invoice", invoiceNumber))
	return tracker.End(nil)
}
