package catalog

import (
	"errors"
	"time"
)

// Product is the sellable master-data record. Prices are paisa, the GST rate
// is basis points. Stock is a cached quantity owned by the inventory ledger;
// catalog never writes it.
type Product struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	SKU               string    `json:"sku"`
	BasePrice         int64     `json:"base_price"`
	GSTRateBps        int64     `json:"gst_rate_bps"`
	TaxExempt         bool      `json:"tax_exempt"`
	Stock             int64     `json:"stock"`
	LowStockThreshold int64     `json:"low_stock_threshold"`
	WeightValue       float64   `json:"weight_value"`
	WeightUnit        string    `json:"weight_unit"`
	SupplierID        int64     `json:"supplier_id,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Supplier is a purchasing counterparty. Rows are soft-deleted so historic
// purchases keep their reference.
type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductInput carries create/update fields for a product.
type ProductInput struct {
	Name              string
	SKU               string
	BasePrice         int64
	GSTRateBps        int64
	TaxExempt         bool
	LowStockThreshold int64
	WeightValue       float64
	WeightUnit        string
	SupplierID        int64
}

// SupplierInput carries create/update fields for a supplier.
type SupplierInput struct {
	Name    string
	Contact string
	Phone   string
	Email   string
	Address string
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}

var (
	// ErrDuplicateSKU indicates a SKU collision on create/update.
	ErrDuplicateSKU = errors.New("catalog: sku already exists")
	// ErrInvalidPrice indicates a negative price.
	ErrInvalidPrice = errors.New("catalog: price must be >= 0")
	// ErrInvalidRate indicates a negative tax rate.
	ErrInvalidRate = errors.New("catalog: gst rate must be >= 0")
)
