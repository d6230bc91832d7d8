package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haiderali7066/Grocery-store-ERP/internal/platform/db"
	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
)

// Repository persists the cost-lot ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	LockProducts(ctx context.Context, productIDs []int64) error
	InsertLot(ctx context.Context, input ReceiveInput) (CostLot, error)
	OpenLotsForUpdate(ctx context.Context, productID int64) ([]CostLot, error)
	DrainLot(ctx context.Context, lotID, qty int64) error
	RestoreLot(ctx context.Context, lotID, qty int64) (CostLot, error)
	AdjustStock(ctx context.Context, productID, delta int64) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetStockLevel reads the cached quantity and threshold for a product.
func (r *Repository) GetStockLevel(ctx context.Context, productID int64) (StockLevel, error) {
	var level StockLevel
	err := r.pool.QueryRow(ctx, `SELECT id, stock, low_stock_threshold FROM products WHERE id=$1`, productID).
		Scan(&level.ProductID, &level.Qty, &level.Threshold)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockLevel{}, shared.ErrNotFound
	}
	return level, err
}

// SumRemaining totals the open lot remainders for a product.
func (r *Repository) SumRemaining(ctx context.Context, productID int64) (int64, error) {
	var sum int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(remaining_qty), 0) FROM cost_lots WHERE product_id=$1`, productID).Scan(&sum)
	return sum, err
}

// ListLots returns every lot for a product in receipt order.
func (r *Repository) ListLots(ctx context.Context, productID int64) ([]CostLot, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, received_at, original_qty, remaining_qty, buying_rate, note
FROM cost_lots WHERE product_id=$1 ORDER BY received_at, id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLots(rows)
}

func (r *txRepository) LockProducts(ctx context.Context, productIDs []int64) error {
	rows, err := r.tx.Query(ctx, `SELECT id FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, productIDs)
	if err != nil {
		return err
	}
	defer rows.Close()
	locked := 0
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		locked++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if locked != len(productIDs) {
		return fmt.Errorf("inventory: %w", shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) InsertLot(ctx context.Context, input ReceiveInput) (CostLot, error) {
	var lot CostLot
	err := r.tx.QueryRow(ctx, `INSERT INTO cost_lots (product_id, received_at, original_qty, remaining_qty, buying_rate, supplier_id, note)
VALUES ($1, NOW(), $2, $2, $3, NULLIF($4, 0), $5)
RETURNING id, product_id, received_at, original_qty, remaining_qty, buying_rate, note`,
		input.ProductID, input.Qty, input.BuyingRate, input.SupplierID, input.Note).
		Scan(&lot.ID, &lot.ProductID, &lot.ReceivedAt, &lot.OriginalQty, &lot.RemainingQty, &lot.BuyingRate, &lot.Note)
	return lot, err
}

func (r *txRepository) OpenLotsForUpdate(ctx context.Context, productID int64) ([]CostLot, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, product_id, received_at, original_qty, remaining_qty, buying_rate, note
FROM cost_lots WHERE product_id=$1 AND remaining_qty > 0 ORDER BY received_at, id FOR UPDATE`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLots(rows)
}

func (r *txRepository) DrainLot(ctx context.Context, lotID, qty int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE cost_lots SET remaining_qty = remaining_qty - $2
WHERE id=$1 AND remaining_qty >= $2`, lotID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lot %d cannot cover %d: %w", lotID, qty, ErrInsufficientStock)
	}
	return nil
}

func (r *txRepository) RestoreLot(ctx context.Context, lotID, qty int64) (CostLot, error) {
	var lot CostLot
	err := r.tx.QueryRow(ctx, `UPDATE cost_lots SET remaining_qty = remaining_qty + $2
WHERE id=$1
RETURNING id, product_id, received_at, original_qty, remaining_qty, buying_rate, note`, lotID, qty).
		Scan(&lot.ID, &lot.ProductID, &lot.ReceivedAt, &lot.OriginalQty, &lot.RemainingQty, &lot.BuyingRate, &lot.Note)
	if errors.Is(err, pgx.ErrNoRows) {
		return CostLot{}, shared.ErrNotFound
	}
	return lot, err
}

func (r *txRepository) AdjustStock(ctx context.Context, productID, delta int64) (int64, error) {
	var stock int64
	err := r.tx.QueryRow(ctx, `UPDATE products SET stock = stock + $2, updated_at = NOW()
WHERE id=$1 RETURNING stock`, productID, delta).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return stock, err
}

func scanLots(rows pgx.Rows) ([]CostLot, error) {
	var lots []CostLot
	for rows.Next() {
		var lot CostLot
		if err := rows.Scan(&lot.ID, &lot.ProductID, &lot.ReceivedAt, &lot.OriginalQty, &lot.RemainingQty, &lot.BuyingRate, &lot.Note); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}
