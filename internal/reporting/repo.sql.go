package reporting

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads ledger aggregates. It never writes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Totals aggregates sales and paid refunds over the window.
func (r *Repository) Totals(ctx context.Context, from, to time.Time) (Totals, error) {
	var t Totals
	err := r.pool.QueryRow(ctx, `SELECT
COUNT(*),
COALESCE(SUM(grand_total), 0),
COALESCE(SUM(tax_total), 0),
COALESCE(SUM(cost_of_goods), 0),
COALESCE(SUM(profit), 0)
FROM sales
WHERE created_at >= $1 AND created_at < $2`, from, to).
		Scan(&t.SalesCount, &t.Revenue, &t.TaxCollected, &t.CostOfGoods, &t.Profit)
	if err != nil {
		return Totals{}, err
	}
	err = r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(approved_amount), 0)
FROM refund_requests
WHERE status='refunded' AND refunded_at >= $1 AND refunded_at < $2`, from, to).
		Scan(&t.RefundsPaid)
	return t, err
}

// DailySeries groups sales per day over the window.
func (r *Repository) DailySeries(ctx context.Context, from, to time.Time) ([]DailyPoint, error) {
	rows, err := r.pool.Query(ctx, `SELECT
to_char(date_trunc('day', created_at), 'YYYY-MM-DD'),
COUNT(*),
COALESCE(SUM(grand_total), 0),
COALESCE(SUM(profit), 0)
FROM sales
WHERE created_at >= $1 AND created_at < $2
GROUP BY 1 ORDER BY 1`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DailyPoint
	for rows.Next() {
		var p DailyPoint
		if err := rows.Scan(&p.Day, &p.SalesCount, &p.Revenue, &p.Profit); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MonthlySeries groups sales per month for the trailing N months.
func (r *Repository) MonthlySeries(ctx context.Context, months int) ([]MonthlyPoint, error) {
	rows, err := r.pool.Query(ctx, `SELECT
to_char(date_trunc('month', created_at), 'YYYY-MM'),
COUNT(*),
COALESCE(SUM(grand_total), 0),
COALESCE(SUM(profit), 0)
FROM sales
WHERE created_at >= date_trunc('month', NOW()) - make_interval(months => $1 - 1)
GROUP BY 1 ORDER BY 1`, months)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MonthlyPoint
	for rows.Next() {
		var p MonthlyPoint
		if err := rows.Scan(&p.Month, &p.SalesCount, &p.Revenue, &p.Profit); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecentSales lists the newest sales first.
func (r *Repository) RecentSales(ctx context.Context, limit int) ([]SaleSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, number, grand_total, profit, payment_method, fbr_status, created_at
FROM sales ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SaleSummary
	for rows.Next() {
		var s SaleSummary
		if err := rows.Scan(&s.ID, &s.Number, &s.GrandTotal, &s.Profit, &s.PaymentMethod, &s.FBRStatus, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LowStock lists active products at or under their restock threshold.
func (r *Repository) LowStock(ctx context.Context) ([]LowStockItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, stock, low_stock_threshold
FROM products
WHERE is_active AND stock <= low_stock_threshold
ORDER BY stock, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LowStockItem
	for rows.Next() {
		var item LowStockItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Stock, &item.Threshold); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// WalletTotal sums the cached balance across all rails.
func (r *Repository) WalletTotal(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM wallet_accounts`).Scan(&total)
	return total, err
}
