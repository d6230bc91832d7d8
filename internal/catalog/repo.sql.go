package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
)

// PGRepository persists catalog data in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const productColumns = `id, name, sku, base_price, gst_rate_bps, tax_exempt, stock, low_stock_threshold, weight_value, weight_unit, COALESCE(supplier_id, 0), is_active, created_at, updated_at`

func (r *PGRepository) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO products (name, sku, base_price, gst_rate_bps, tax_exempt, stock, low_stock_threshold, weight_value, weight_unit, supplier_id, is_active)
VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, NULLIF($9, 0), TRUE)
RETURNING `+productColumns, input.Name, input.SKU, input.BasePrice, input.GSTRateBps, input.TaxExempt, input.LowStockThreshold, input.WeightValue, input.WeightUnit, input.SupplierID)
	product, err := scanProduct(row)
	if err != nil {
		return Product{}, mapCatalogError(err)
	}
	return product, nil
}

func (r *PGRepository) UpdateProduct(ctx context.Context, id int64, input ProductInput) (Product, error) {
	row := r.pool.QueryRow(ctx, `UPDATE products
SET name=$2, sku=$3, base_price=$4, gst_rate_bps=$5, tax_exempt=$6, low_stock_threshold=$7, weight_value=$8, weight_unit=$9, supplier_id=NULLIF($10, 0), updated_at=NOW()
WHERE id=$1
RETURNING `+productColumns, id, input.Name, input.SKU, input.BasePrice, input.GSTRateBps, input.TaxExempt, input.LowStockThreshold, input.WeightValue, input.WeightUnit, input.SupplierID)
	product, err := scanProduct(row)
	if err != nil {
		return Product{}, mapCatalogError(err)
	}
	return product, nil
}

func (r *PGRepository) GetProduct(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	product, err := scanProduct(row)
	if err != nil {
		return Product{}, mapCatalogError(err)
	}
	return product, nil
}

func (r *PGRepository) ListProducts(ctx context.Context, filter ListFilter) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Search != "" {
		argCount++
		placeholder := `$` + strconv.Itoa(argCount)
		query += ` AND (name ILIKE ` + placeholder + ` OR sku ILIKE ` + placeholder + `)`
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.ActiveOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY name`
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, filter.Limit)
	if filter.Offset > 0 {
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *PGRepository) CreateSupplier(ctx context.Context, input SupplierInput) (Supplier, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO suppliers (name, contact, phone, email, address, is_active)
VALUES ($1, $2, $3, $4, $5, TRUE)
RETURNING id, name, contact, phone, email, address, is_active, created_at, updated_at`,
		input.Name, input.Contact, input.Phone, input.Email, input.Address)
	return scanSupplier(row)
}

func (r *PGRepository) ListSuppliers(ctx context.Context, activeOnly bool) ([]Supplier, error) {
	query := `SELECT id, name, contact, phone, email, address, is_active, created_at, updated_at FROM suppliers`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, rows.Err()
}

func (r *PGRepository) DeactivateSupplier(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.BasePrice, &p.GSTRateBps, &p.TaxExempt, &p.Stock, &p.LowStockThreshold, &p.WeightValue, &p.WeightUnit, &p.SupplierID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Contact, &s.Phone, &s.Email, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func mapCatalogError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateSKU
	}
	return err
}
