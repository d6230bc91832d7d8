package pos

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
)

// PGRepository persists finalized sales in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const saleColumns = `id, number, subtotal, tax_total, grand_total, cost_of_goods, profit,
payment_method, fbr_status, COALESCE(fbr_invoice_number, ''), COALESCE(cashier_id, 0), created_at`

const saleLineColumns = `id, sale_id, product_id, product_name, qty, unit_price, subtotal,
gst_rate_bps, tax_amount, unit_cost, line_cost`

// CreateSale inserts the sale and its lines in one transaction.
func (r *PGRepository) CreateSale(ctx context.Context, sale Sale) (Sale, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Sale{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `INSERT INTO sales
(number, subtotal, tax_total, grand_total, cost_of_goods, profit, payment_method, fbr_status, fbr_invoice_number, cashier_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, 0), $11)
RETURNING id`,
		sale.Number, sale.Subtotal, sale.TaxTotal, sale.GrandTotal, sale.CostOfGoods, sale.Profit,
		string(sale.PaymentMethod), string(sale.FBRStatus), sale.FBRInvoiceNumber, sale.CashierID, sale.CreatedAt).
		Scan(&sale.ID)
	if err != nil {
		return Sale{}, err
	}
	for i := range sale.Lines {
		line := &sale.Lines[i]
		line.SaleID = sale.ID
		err = tx.QueryRow(ctx, `INSERT INTO sale_items
(sale_id, product_id, product_name, qty, unit_price, subtotal, gst_rate_bps, tax_amount, unit_cost, line_cost)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`,
			line.SaleID, line.ProductID, line.ProductName, line.Qty, line.UnitPrice, line.Subtotal,
			line.GSTRateBps, line.TaxAmount, line.UnitCost, line.LineCost).
			Scan(&line.ID)
		if err != nil {
			return Sale{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// GetSale loads one sale with its lines.
func (r *PGRepository) GetSale(ctx context.Context, id int64) (Sale, error) {
	return r.getSale(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1`, id)
}

// GetSaleByNumber loads one sale by receipt number.
func (r *PGRepository) GetSaleByNumber(ctx context.Context, number string) (Sale, error) {
	return r.getSale(ctx, `SELECT `+saleColumns+` FROM sales WHERE number=$1`, number)
}

func (r *PGRepository) getSale(ctx context.Context, query string, arg any) (Sale, error) {
	var sale Sale
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&sale.ID, &sale.Number, &sale.Subtotal, &sale.TaxTotal, &sale.GrandTotal, &sale.CostOfGoods,
		&sale.Profit, &sale.PaymentMethod, &sale.FBRStatus, &sale.FBRInvoiceNumber, &sale.CashierID, &sale.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, shared.ErrNotFound
	}
	if err != nil {
		return Sale{}, err
	}
	lines, err := r.linesFor(ctx, []int64{sale.ID})
	if err != nil {
		return Sale{}, err
	}
	sale.Lines = lines[sale.ID]
	return sale, nil
}

// ListSales returns sales in the window, oldest first, lines included.
func (r *PGRepository) ListSales(ctx context.Context, filter ListFilter) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)
  AND id > $3
ORDER BY created_at, id
LIMIT $4`, nullTime(filter.From), nullTime(filter.To), filter.AfterID, filter.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []Sale
	var ids []int64
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.Number, &sale.Subtotal, &sale.TaxTotal, &sale.GrandTotal,
			&sale.CostOfGoods, &sale.Profit, &sale.PaymentMethod, &sale.FBRStatus, &sale.FBRInvoiceNumber,
			&sale.CashierID, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
		ids = append(ids, sale.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return sales, nil
	}
	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Lines = lines[sales[i].ID]
	}
	return sales, nil
}

// UpdateFBRStatus records a submission outcome. A sale already marked
// success keeps it; the update becomes a no-op.
func (r *PGRepository) UpdateFBRStatus(ctx context.Context, id int64, status FBRStatus, invoiceNumber string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sales
SET fbr_status=$2, fbr_invoice_number=COALESCE(NULLIF($3, ''), fbr_invoice_number)
WHERE id=$1 AND fbr_status <> 'success'`, id, string(status), invoiceNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sales WHERE id=$1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
	}
	return nil
}

func (r *PGRepository) linesFor(ctx context.Context, saleIDs []int64) (map[int64][]SaleLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleLineColumns+` FROM sale_items
WHERE sale_id = ANY($1) ORDER BY sale_id, id`, saleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]SaleLine, len(saleIDs))
	for rows.Next() {
		var line SaleLine
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductID, &line.ProductName, &line.Qty,
			&line.UnitPrice, &line.Subtotal, &line.GSTRateBps, &line.TaxAmount, &line.UnitCost, &line.LineCost); err != nil {
			return nil, err
		}
		out[line.SaleID] = append(out[line.SaleID], line)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
