package refunds

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
	"github.com/haiderali7066/Grocery-store-ERP/internal/wallet"
)

// SaleRef is the slice of a sale a refund transition needs: how much was
// collected and on which rail.
type SaleRef struct {
	ID            int64
	GrandTotal    int64
	PaymentMethod string
}

// RepositoryPort defines data access for refund requests.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRequest(ctx context.Context, id int64) (RefundRequest, error)
	ListRequests(ctx context.Context, filter ListFilter) ([]RefundRequest, error)
	SumApproved(ctx context.Context, saleID int64) (int64, error)
}

// WalletPort pays out approved refunds. Credit is only used to reverse a
// payout whose status flip did not commit.
type WalletPort interface {
	Credit(ctx context.Context, account wallet.Account, amount int64, category, description string) (wallet.Transaction, error)
	Debit(ctx context.Context, account wallet.Account, amount int64, category, description string) (wallet.Transaction, error)
}

// ApprovalPort keeps the who-did-what trail for the workflow.
type ApprovalPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// AuditPort records refund mutations.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// ReportsPort invalidates cached report snapshots after money moves.
type ReportsPort interface {
	Invalidate(ctx context.Context) error
}

// Service runs the refund approval workflow.
type Service struct {
	repo      RepositoryPort
	wallet    WalletPort
	approvals ApprovalPort
	audit     AuditPort
	reports   ReportsPort
	log       *slog.Logger
}

func NewService(repo RepositoryPort, wal WalletPort, approvals ApprovalPort, audit AuditPort, reports ReportsPort, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, wallet: wal, approvals: approvals, audit: audit, reports: reports, log: log}
}

// Submit opens a pending refund request against a sale. The requested
// amount may never exceed the sale's grand total minus everything already
// approved against it; the check and the insert run under the sale's row
// lock so two concurrent submits cannot both fit into the same remainder.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (RefundRequest, error) {
	if input.Amount <= 0 {
		return RefundRequest{}, ErrInvalidAmount
	}
	var created RefundRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.LockSale(ctx, input.SaleID)
		if err != nil {
			return err
		}
		approved, err := tx.SumApproved(ctx, input.SaleID)
		if err != nil {
			return err
		}
		if input.Amount > sale.GrandTotal-approved {
			return fmt.Errorf("requested %d, refundable %d: %w", input.Amount, sale.GrandTotal-approved, ErrRefundExceedsSale)
		}
		created, err = tx.InsertRequest(ctx, RefundRequest{
			SaleID:          input.SaleID,
			RequestedAmount: input.Amount,
			Reason:          input.Reason,
			Status:          StatusPending,
			RequestedBy:     shared.ActorFromContext(ctx),
			CreatedAt:       time.Now().UTC(),
		})
		return err
	})
	if err != nil {
		return RefundRequest{}, err
	}
	s.recordApproval(ctx, created.ID, shared.ApprovalSubmit, input.Reason)
	s.recordAudit(ctx, "refunds:submit", created)
	return created, nil
}

// Approve moves a pending request to approved and immediately attempts the
// wallet payout. The approved amount must fit both the request and the
// sale's remaining refundable balance. When the payout fails the request
// stays approved and the error wraps ErrPayoutFailed; RetryPayout completes
// it later.
func (s *Service) Approve(ctx context.Context, id, approvedAmount int64, notes string) (RefundRequest, error) {
	if approvedAmount <= 0 {
		return RefundRequest{}, ErrInvalidAmount
	}
	var req RefundRequest
	var sale SaleRef
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		peek, err := tx.RequestForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if peek.Status != StatusPending {
			return fmt.Errorf("approve from %s: %w", peek.Status, ErrInvalidTransition)
		}
		sale, err = tx.LockSale(ctx, peek.SaleID)
		if err != nil {
			return err
		}
		if approvedAmount > peek.RequestedAmount {
			return fmt.Errorf("approved %d exceeds requested %d: %w", approvedAmount, peek.RequestedAmount, ErrRefundExceedsSale)
		}
		approved, err := tx.SumApproved(ctx, peek.SaleID)
		if err != nil {
			return err
		}
		if approvedAmount > sale.GrandTotal-approved {
			return fmt.Errorf("approved %d, refundable %d: %w", approvedAmount, sale.GrandTotal-approved, ErrRefundExceedsSale)
		}
		req, err = tx.MarkApproved(ctx, id, approvedAmount, notes, shared.ActorFromContext(ctx))
		return err
	})
	if err != nil {
		return RefundRequest{}, err
	}
	s.recordApproval(ctx, req.ID, shared.ApprovalApprove, notes)
	s.recordAudit(ctx, "refunds:approve", req)

	settled, err := s.settle(ctx, req, sale.PaymentMethod)
	if err != nil {
		return req, err
	}
	return settled, nil
}

// RetryPayout re-attempts the wallet debit for a request stuck in approved.
func (s *Service) RetryPayout(ctx context.Context, id int64) (RefundRequest, error) {
	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return RefundRequest{}, err
	}
	if req.Status != StatusApproved {
		return RefundRequest{}, fmt.Errorf("retry payout from %s: %w", req.Status, ErrInvalidTransition)
	}
	var sale SaleRef
	if err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err = tx.LockSale(ctx, req.SaleID)
		return err
	}); err != nil {
		return RefundRequest{}, err
	}
	return s.settle(ctx, req, sale.PaymentMethod)
}

// settle pays the approved amount out of the sale's rail and marks the
// request refunded. The refund row stays locked for the whole sequence so
// a concurrent retry cannot debit twice. The wallet debit commits in its
// own ledger transaction, so when the status flip fails afterwards the
// money is credited back before the request rolls back to approved;
// otherwise a later RetryPayout would debit the same amount again.
func (s *Service) settle(ctx context.Context, req RefundRequest, paymentMethod string) (RefundRequest, error) {
	var settled RefundRequest
	var debited int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.RequestForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		if current.Status != StatusApproved {
			return fmt.Errorf("payout from %s: %w", current.Status, ErrInvalidTransition)
		}
		ref := fmt.Sprintf("refund-%d", current.ID)
		if _, err := s.wallet.Debit(ctx, wallet.Account(paymentMethod), current.ApprovedAmount, "refund", ref); err != nil {
			return fmt.Errorf("%w: %v", ErrPayoutFailed, err)
		}
		debited = current.ApprovedAmount
		settled, err = tx.MarkRefunded(ctx, current.ID)
		return err
	})
	if err != nil {
		if debited > 0 {
			s.compensatePayout(ctx, req.ID, paymentMethod, debited)
		}
		return req, err
	}
	s.recordApproval(ctx, settled.ID, shared.ApprovalPayout, "")
	s.recordAudit(ctx, "refunds:payout", settled)
	s.invalidateReports(ctx)
	return settled, nil
}

func (s *Service) compensatePayout(ctx context.Context, id int64, paymentMethod string, amount int64) {
	ref := fmt.Sprintf("refund-%d-reversal", id)
	if _, err := s.wallet.Credit(ctx, wallet.Account(paymentMethod), amount, "refund_reversal", ref); err != nil {
		s.log.Error("refunds: reversing payout failed", "ref", id, "amount", amount, "error", err)
	}
}

func (s *Service) invalidateReports(ctx context.Context) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Invalidate(ctx); err != nil {
		s.log.Warn("refunds: report cache invalidation failed", "error", err)
	}
}

// Reject terminally declines a pending request. No money moves.
func (s *Service) Reject(ctx context.Context, id int64, notes string) (RefundRequest, error) {
	var req RefundRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		peek, err := tx.RequestForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if peek.Status != StatusPending {
			return fmt.Errorf("reject from %s: %w", peek.Status, ErrInvalidTransition)
		}
		req, err = tx.MarkRejected(ctx, id, notes, shared.ActorFromContext(ctx))
		return err
	})
	if err != nil {
		return RefundRequest{}, err
	}
	s.recordApproval(ctx, req.ID, shared.ApprovalReject, notes)
	s.recordAudit(ctx, "refunds:reject", req)
	return req, nil
}

// GetRequest loads one refund request.
func (s *Service) GetRequest(ctx context.Context, id int64) (RefundRequest, error) {
	return s.repo.GetRequest(ctx, id)
}

// ListRequests returns requests matching the filter, oldest first.
func (s *Service) ListRequests(ctx context.Context, filter ListFilter) ([]RefundRequest, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.ListRequests(ctx, filter)
}

// ApprovedTotal reports how much has been approved or paid out against a
// sale across all its refund requests.
func (s *Service) ApprovedTotal(ctx context.Context, saleID int64) (int64, error) {
	return s.repo.SumApproved(ctx, saleID)
}

func (s *Service) recordApproval(ctx context.Context, refID int64, action shared.ApprovalAction, note string) {
	if s.approvals == nil {
		return
	}
	if err := s.approvals.Record(ctx, shared.ApprovalLog{
		Module:  "refunds",
		RefID:   refID,
		ActorID: shared.ActorFromContext(ctx),
		Action:  action,
		Note:    note,
	}); err != nil {
		s.log.Warn("refunds: record approval failed", "ref", refID, "error", err)
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, req RefundRequest) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "refund_request",
		EntityID: fmt.Sprintf("%d", req.ID),
		Meta: map[string]any{
			"sale_id": req.SaleID,
			"status":  string(req.Status),
			"amount":  req.RequestedAmount,
		},
	})
}
