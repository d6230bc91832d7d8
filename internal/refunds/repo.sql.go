package refunds

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haiderali7066/Grocery-store-ERP/internal/platform/db"
	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
)

// Repository persists refund requests in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations the workflow needs.
// Locks are always taken request first, then sale; no transaction ever
// holds the sale lock while waiting on a request.
type TxRepository interface {
	LockSale(ctx context.Context, saleID int64) (SaleRef, error)
	RequestForUpdate(ctx context.Context, id int64) (RefundRequest, error)
	SumApproved(ctx context.Context, saleID int64) (int64, error)
	InsertRequest(ctx context.Context, req RefundRequest) (RefundRequest, error)
	MarkApproved(ctx context.Context, id, amount int64, notes string, approverID int64) (RefundRequest, error)
	MarkRejected(ctx context.Context, id int64, notes string, approverID int64) (RefundRequest, error)
	MarkRefunded(ctx context.Context, id int64) (RefundRequest, error)
}

type txRepository struct {
	tx pgx.Tx
}

const requestColumns = `id, sale_id, requested_amount, COALESCE(approved_amount, 0), reason,
COALESCE(notes, ''), status, COALESCE(requested_by, 0), COALESCE(approver_id, 0),
created_at, decided_at, refunded_at`

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("refunds repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetRequest loads one request without locking.
func (r *Repository) GetRequest(ctx context.Context, id int64) (RefundRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM refund_requests WHERE id=$1`, id)
	return scanRequest(row)
}

// ListRequests returns matching requests, oldest first.
func (r *Repository) ListRequests(ctx context.Context, filter ListFilter) ([]RefundRequest, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+requestColumns+` FROM refund_requests
WHERE ($1 = '' OR status = $1)
  AND ($2 = 0 OR sale_id = $2)
  AND id > $3
ORDER BY id
LIMIT $4`, string(filter.Status), filter.SaleID, filter.AfterID, filter.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RefundRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// SumApproved totals approved and paid-out amounts against a sale.
func (r *Repository) SumApproved(ctx context.Context, saleID int64) (int64, error) {
	return sumApproved(ctx, r.pool, saleID)
}

func (r *txRepository) LockSale(ctx context.Context, saleID int64) (SaleRef, error) {
	var ref SaleRef
	err := r.tx.QueryRow(ctx, `SELECT id, grand_total, payment_method FROM sales WHERE id=$1 FOR UPDATE`, saleID).
		Scan(&ref.ID, &ref.GrandTotal, &ref.PaymentMethod)
	if errors.Is(err, pgx.ErrNoRows) {
		return SaleRef{}, shared.ErrNotFound
	}
	return ref, err
}

func (r *txRepository) RequestForUpdate(ctx context.Context, id int64) (RefundRequest, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM refund_requests WHERE id=$1 FOR UPDATE`, id)
	return scanRequest(row)
}

func (r *txRepository) SumApproved(ctx context.Context, saleID int64) (int64, error) {
	return sumApproved(ctx, r.tx, saleID)
}

func (r *txRepository) InsertRequest(ctx context.Context, req RefundRequest) (RefundRequest, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO refund_requests
(sale_id, requested_amount, reason, status, requested_by, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6)
RETURNING `+requestColumns,
		req.SaleID, req.RequestedAmount, req.Reason, string(req.Status), req.RequestedBy, req.CreatedAt)
	return scanRequest(row)
}

func (r *txRepository) MarkApproved(ctx context.Context, id, amount int64, notes string, approverID int64) (RefundRequest, error) {
	row := r.tx.QueryRow(ctx, `UPDATE refund_requests
SET status='approved', approved_amount=$2, notes=NULLIF($3, ''), approver_id=NULLIF($4, 0), decided_at=NOW()
WHERE id=$1 AND status='pending'
RETURNING `+requestColumns, id, amount, notes, approverID)
	return scanRequest(row)
}

func (r *txRepository) MarkRejected(ctx context.Context, id int64, notes string, approverID int64) (RefundRequest, error) {
	row := r.tx.QueryRow(ctx, `UPDATE refund_requests
SET status='rejected', notes=NULLIF($2, ''), approver_id=NULLIF($3, 0), decided_at=NOW()
WHERE id=$1 AND status='pending'
RETURNING `+requestColumns, id, notes, approverID)
	return scanRequest(row)
}

func (r *txRepository) MarkRefunded(ctx context.Context, id int64) (RefundRequest, error) {
	row := r.tx.QueryRow(ctx, `UPDATE refund_requests
SET status='refunded', refunded_at=NOW()
WHERE id=$1 AND status='approved'
RETURNING `+requestColumns, id)
	return scanRequest(row)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sumApproved(ctx context.Context, q querier, saleID int64) (int64, error) {
	var sum int64
	err := q.QueryRow(ctx, `SELECT COALESCE(SUM(approved_amount), 0)
FROM refund_requests WHERE sale_id=$1 AND status IN ('approved', 'refunded')`, saleID).Scan(&sum)
	return sum, err
}

func scanRequest(row pgx.Row) (RefundRequest, error) {
	var req RefundRequest
	var status string
	err := row.Scan(&req.ID, &req.SaleID, &req.RequestedAmount, &req.ApprovedAmount, &req.Reason,
		&req.Notes, &status, &req.RequestedBy, &req.ApproverID, &req.CreatedAt, &req.DecidedAt, &req.RefundedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return RefundRequest{}, shared.ErrNotFound
	}
	if err != nil {
		return RefundRequest{}, err
	}
	req.Status = Status(status)
	return req, nil
}
