package reporting

import "time"

// Totals aggregates the ledger over a window. All amounts are paisa.
type Totals struct {
	SalesCount   int64 `json:"sales_count"`
	Revenue      int64 `json:"revenue"`
	TaxCollected int64 `json:"tax_collected"`
	CostOfGoods  int64 `json:"cost_of_goods"`
	Profit       int64 `json:"profit"`
	RefundsPaid  int64 `json:"refunds_paid"`
}

// DailyPoint is one day of the sales series.
type DailyPoint struct {
	Day        string `json:"day"`
	SalesCount int64  `json:"sales_count"`
	Revenue    int64  `json:"revenue"`
	Profit     int64  `json:"profit"`
}

// MonthlyPoint is one month of the sales series.
type MonthlyPoint struct {
	Month      string `json:"month"`
	SalesCount int64  `json:"sales_count"`
	Revenue    int64  `json:"revenue"`
	Profit     int64  `json:"profit"`
}

// SaleSummary is the listing row for report pages.
type SaleSummary struct {
	ID            int64     `json:"id"`
	Number        string    `json:"number"`
	GrandTotal    int64     `json:"grand_total"`
	Profit        int64     `json:"profit"`
	PaymentMethod string    `json:"payment_method"`
	FBRStatus     string    `json:"fbr_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// LowStockItem is a product at or under its restock threshold.
type LowStockItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Stock     int64  `json:"stock"`
	Threshold int64  `json:"threshold"`
}

// Dashboard is the landing-page snapshot.
type Dashboard struct {
	Totals      Totals         `json:"totals"`
	WalletTotal int64          `json:"wallet_total"`
	LowStock    []LowStockItem `json:"low_stock"`
	RecentSales []SaleSummary  `json:"recent_sales"`
}
