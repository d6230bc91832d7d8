package refunds

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
	"github.com/haiderali7066/Grocery-store-ERP/internal/wallet"
)

type memoryRefundRepo struct {
	sales            map[int64]SaleRef
	requests         map[int64]RefundRequest
	nextID           int64
	failRefundedOnce bool
}

type memoryRefundTx struct {
	repo *memoryRefundRepo
}

func newMemoryRefundRepo() *memoryRefundRepo {
	return &memoryRefundRepo{
		sales:    make(map[int64]SaleRef),
		requests: make(map[int64]RefundRequest),
	}
}

func (r *memoryRefundRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	backup := make(map[int64]RefundRequest, len(r.requests))
	for k, v := range r.requests {
		backup[k] = v
	}
	backupID := r.nextID
	if err := fn(ctx, &memoryRefundTx{repo: r}); err != nil {
		r.requests = backup
		r.nextID = backupID
		return err
	}
	return nil
}

func (r *memoryRefundRepo) GetRequest(ctx context.Context, id int64) (RefundRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return RefundRequest{}, shared.ErrNotFound
	}
	return req, nil
}

func (r *memoryRefundRepo) ListRequests(ctx context.Context, filter ListFilter) ([]RefundRequest, error) {
	var out []RefundRequest
	for id := int64(1); id <= r.nextID; id++ {
		req, ok := r.requests[id]
		if !ok {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.SaleID != 0 && req.SaleID != filter.SaleID {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *memoryRefundRepo) SumApproved(ctx context.Context, saleID int64) (int64, error) {
	var sum int64
	for _, req := range r.requests {
		if req.SaleID == saleID && (req.Status == StatusApproved || req.Status == StatusRefunded) {
			sum += req.ApprovedAmount
		}
	}
	return sum, nil
}

func (tx *memoryRefundTx) LockSale(ctx context.Context, saleID int64) (SaleRef, error) {
	sale, ok := tx.repo.sales[saleID]
	if !ok {
		return SaleRef{}, shared.ErrNotFound
	}
	return sale, nil
}

func (tx *memoryRefundTx) RequestForUpdate(ctx context.Context, id int64) (RefundRequest, error) {
	return tx.repo.GetRequest(ctx, id)
}

func (tx *memoryRefundTx) SumApproved(ctx context.Context, saleID int64) (int64, error) {
	return tx.repo.SumApproved(ctx, saleID)
}

func (tx *memoryRefundTx) InsertRequest(ctx context.Context, req RefundRequest) (RefundRequest, error) {
	tx.repo.nextID++
	req.ID = tx.repo.nextID
	tx.repo.requests[req.ID] = req
	return req, nil
}

func (tx *memoryRefundTx) MarkApproved(ctx context.Context, id, amount int64, notes string, approverID int64) (RefundRequest, error) {
	req, ok := tx.repo.requests[id]
	if !ok || req.Status != StatusPending {
		return RefundRequest{}, shared.ErrNotFound
	}
	now := time.Now()
	req.Status = StatusApproved
	req.ApprovedAmount = amount
	req.Notes = notes
	req.ApproverID = approverID
	req.DecidedAt = &now
	tx.repo.requests[id] = req
	return req, nil
}

func (tx *memoryRefundTx) MarkRejected(ctx context.Context, id int64, notes string, approverID int64) (RefundRequest, error) {
	req, ok := tx.repo.requests[id]
	if !ok || req.Status != StatusPending {
		return RefundRequest{}, shared.ErrNotFound
	}
	now := time.Now()
	req.Status = StatusRejected
	req.Notes = notes
	req.ApproverID = approverID
	req.DecidedAt = &now
	tx.repo.requests[id] = req
	return req, nil
}

func (tx *memoryRefundTx) MarkRefunded(ctx context.Context, id int64) (RefundRequest, error) {
	if tx.repo.failRefundedOnce {
		tx.repo.failRefundedOnce = false
		return RefundRequest{}, errors.New("connection reset")
	}
	req, ok := tx.repo.requests[id]
	if !ok || req.Status != StatusApproved {
		return RefundRequest{}, shared.ErrNotFound
	}
	now := time.Now()
	req.Status = StatusRefunded
	req.RefundedAt = &now
	tx.repo.requests[id] = req
	return req, nil
}

type refundWallet struct {
	balances  map[wallet.Account]int64
	debits    int
	credits   int
	failDebit bool
}

func (f *refundWallet) Debit(ctx context.Context, account wallet.Account, amount int64, category, description string) (wallet.Transaction, error) {
	if f.failDebit {
		return wallet.Transaction{}, errors.New("wallet unavailable")
	}
	if f.balances[account] < amount {
		return wallet.Transaction{}, wallet.ErrInsufficientBalance
	}
	f.balances[account] -= amount
	f.debits++
	return wallet.Transaction{Account: account, Type: wallet.TypeExpense, Amount: amount}, nil
}

func (f *refundWallet) Credit(ctx context.Context, account wallet.Account, amount int64, category, description string) (wallet.Transaction, error) {
	f.balances[account] += amount
	f.credits++
	return wallet.Transaction{Account: account, Type: wallet.TypeIncome, Amount: amount}, nil
}

type refundReports struct {
	bumps int
}

func (f *refundReports) Invalidate(ctx context.Context) error {
	f.bumps++
	return nil
}

type refundFixture struct {
	svc     *Service
	repo    *memoryRefundRepo
	wallet  *refundWallet
	reports *refundReports
}

func newRefundFixture() *refundFixture {
	f := &refundFixture{
		repo:    newMemoryRefundRepo(),
		wallet:  &refundWallet{balances: map[wallet.Account]int64{wallet.AccountCash: 10000}},
		reports: &refundReports{},
	}
	f.repo.sales[1] = SaleRef{ID: 1, GrandTotal: 4400, PaymentMethod: "cash"}
	f.svc = NewService(f.repo, f.wallet, nil, nil, f.reports, nil)
	return f
}

func TestSubmitExceedingGrandTotal(t *testing.T) {
	f := newRefundFixture()

	_, err := f.svc.Submit(context.Background(), SubmitInput{SaleID: 1, Amount: 5000, Reason: "damaged"})
	require.ErrorIs(t, err, ErrRefundExceedsSale)
	require.Empty(t, f.repo.requests)
}

func TestSubmitAndApproveFullFlow(t *testing.T) {
	f := newRefundFixture()
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, SubmitInput{SaleID: 1, Amount: 2000, Reason: "damaged"})
	require.NoError(t, err)
	require.Equal(t, StatusPending, req.Status)

	settled, err := f.svc.Approve(ctx, req.ID, 2000, "ok")
	require.NoError(t, err)
	require.Equal(t, StatusRefunded, settled.Status)
	require.NotNil(t, settled.RefundedAt)
	require.Equal(t, int64(8000), f.wallet.balances[wallet.AccountCash])
	require.Equal(t, 1, f.reports.bumps)
}

func TestFailedStatusFlipReversesPayout(t *testing.T) {
	f := newRefundFixture()
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, SubmitInput{SaleID: 1, Amount: 2000, Reason: "r"})
	require.NoError(t, err)

	f.repo.failRefundedOnce = true
	_, err = f.svc.Approve(ctx, req.ID, 2000, "")
	require.Error(t, err)

	// The debit landed but the status flip rolled back, so the money must
	// come back before anyone can retry.
	stuck, err := f.svc.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, stuck.Status)
	require.Equal(t, int64(10000), f.wallet.balances[wallet.AccountCash])
	require.Equal(t, 1, f.wallet.debits)
	require.Equal(t, 1, f.wallet.credits)
	require.Equal(t, 0, f.reports.bumps)

	settled, err := f.svc.RetryPayout(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRefunded, settled.Status)
	require.Equal(t, int64(8000), f.wallet.balances[wallet.AccountCash])
	require.Equal(t, 2, f.wallet.debits)
	require.Equal(t, 1, f.wallet.credits)

	total, err := f.svc.ApprovedTotal(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2000), total)
}

func TestApprovePartialAmount(t *testing.T) {
	f := newRefundFixture()
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, SubmitInput{SaleID: 1, Amount: 3000, Reason: "partial"})
	require.NoError(t, err)

	settled, err := f.svc.Approve(ctx, req.ID, 1500, "half")
	require.NoError(t, err)
	require.Equal(t, int64(1500), settled.ApprovedAmount)
	require.Equal(t, int64(8500), f.wallet.balances[wallet.AccountCash])
}

func TestApproveMoreThanRequested(t *testing.T) {
	f := newRefundFixture()
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, SubmitInput{SaleID: 1, Amount: 1000, Reason: "r"})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, req.ID, 2000, "")
	require.ErrorIs(t, err, ErrRefundExceedsSale)
}

func TestCumulativeApprovalsNeverExceedSale(t *testing.T) {
	f := newRefundFixture()
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, SubmitInput{SaleID: 1, Amount: 3000, Reason: "a"})
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, SubmitInput{SaleID: 1, Amount: 3000, Reason: "b"})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, first.ID, 3000, "")
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, second.ID, 3000, "")
	require.ErrorIs(t, err, ErrRefundExceedsSale)

	settled, err := f.svc.Approve(ctx, second.ID, 1400, "remainder")
	require.NoError(t, err)
	require.Equal(t, StatusRefunded, settled.Status)

	total, err := f.svc.ApprovedTotal(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(4400), total)
}

func TestApproveTwiceIsInvalidTransition(t *testing.T) {
	f := newRefundFixture()
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, SubmitInput{SaleID: 1, Amount: 1000, Reason: "r"})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, req.ID, 1000, "")
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, req.ID, 1000, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, 1, f.wallet.debits)
}

func TestRejectIsTerminal(t *testing.T) {
	f := newRefundFixture()
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, SubmitInput{SaleID: 1, Amount: 1000, Reason: "r"})
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, req.ID, "no receipt")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.Equal(t, 0, f.wallet.debits)

	_, err = f.svc.Approve(ctx, req.ID, 1000, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.Reject(ctx, req.ID, "again")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFailedPayoutStaysApprovedAndIsRetryable(t *testing.T) {
	f := newRefundFixture()
	f.wallet.failDebit = true
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, SubmitInput{SaleID: 1, Amount: 2000, Reason: "r"})
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, req.ID, 2000, "")
	require.ErrorIs(t, err, ErrPayoutFailed)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, int64(10000), f.wallet.balances[wallet.AccountCash])

	f.wallet.failDebit = false
	settled, err := f.svc.RetryPayout(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRefunded, settled.Status)
	require.Equal(t, int64(8000), f.wallet.balances[wallet.AccountCash])
	require.Equal(t, 1, f.wallet.debits)
}

func TestRetryPayoutRequiresApproved(t *testing.T) {
	f := newRefundFixture()
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, SubmitInput{SaleID: 1, Amount: 1000, Reason: "r"})
	require.NoError(t, err)

	_, err = f.svc.RetryPayout(ctx, req.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSubmitUnknownSale(t *testing.T) {
	f := newRefundFixture()

	_, err := f.svc.Submit(context.Background(), SubmitInput{SaleID: 99, Amount: 100, Reason: "r"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
