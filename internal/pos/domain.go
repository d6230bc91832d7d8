package pos

import (
	"errors"
	"time"

	"github.com/haiderali7066/Grocery-store-ERP/internal/wallet"
)

// PaymentMethod is the rail a sale was collected on. The set is closed and
// maps one-to-one onto wallet accounts.
type PaymentMethod string

const (
	PayCash      PaymentMethod = "cash"
	PayBank      PaymentMethod = "bank"
	PayEasypaisa PaymentMethod = "easypaisa"
	PayJazzcash  PaymentMethod = "jazzcash"
	PayCard      PaymentMethod = "card"
)

// Valid reports whether the method is one of the known rails.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayBank, PayEasypaisa, PayJazzcash, PayCard:
		return true
	}
	return false
}

// Account returns the wallet account credited for this method.
func (m PaymentMethod) Account() wallet.Account {
	return wallet.Account(m)
}

// FBRStatus tracks the external tax-authority submission for a sale. It is
// the only field on a finalized sale that may change afterwards.
type FBRStatus string

const (
	FBRPending FBRStatus = "pending"
	FBRSuccess FBRStatus = "success"
	FBRFailed  FBRStatus = "failed"
)

func (s FBRStatus) Valid() bool {
	switch s {
	case FBRPending, FBRSuccess, FBRFailed:
		return true
	}
	return false
}

// SaleLine is one finalized cart line. UnitPrice and GSTRateBps are the
// catalog values at finalization time; UnitCost is resolved from the cost
// lots actually drained.
type SaleLine struct {
	ID          int64  `json:"id"`
	SaleID      int64  `json:"sale_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Qty         int64  `json:"qty"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
	GSTRateBps  int64  `json:"gst_rate_bps"`
	TaxAmount   int64  `json:"tax_amount"`
	UnitCost    int64  `json:"unit_cost"`
	LineCost    int64  `json:"line_cost"`
}

// Sale is an immutable finalized point-of-sale transaction. Profit is
// GrandTotal − TaxTotal − CostOfGoods and holds exactly by construction.
type Sale struct {
	ID               int64         `json:"id"`
	Number           string        `json:"number"`
	Lines            []SaleLine    `json:"lines"`
	Subtotal         int64         `json:"subtotal"`
	TaxTotal         int64         `json:"tax_total"`
	GrandTotal       int64         `json:"grand_total"`
	CostOfGoods      int64         `json:"cost_of_goods"`
	Profit           int64         `json:"profit"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	FBRStatus        FBRStatus     `json:"fbr_status"`
	FBRInvoiceNumber string        `json:"fbr_invoice_number,omitempty"`
	CashierID        int64         `json:"cashier_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// LineInput is one requested cart line. Any client-proposed price is
// ignored; the catalog price at finalization is authoritative.
type LineInput struct {
	ProductID int64
	Qty       int64
}

// SaleInput is the FinalizeSale request.
type SaleInput struct {
	Lines          []LineInput
	PaymentMethod  PaymentMethod
	CashierID      int64
	IdempotencyKey string
}

// ListFilter narrows sale listings. Zero times mean unbounded.
type ListFilter struct {
	From    time.Time
	To      time.Time
	AfterID int64
	Limit   int
}

var (
	ErrEmptyCart              = errors.New("pos: cart is empty")
	ErrInvalidQuantity        = errors.New("pos: quantity must be positive")
	ErrUnknownPaymentMethod   = errors.New("pos: unknown payment method")
	ErrProductInactive        = errors.New("pos: product is inactive")
	ErrSaleFinalizationFailed = errors.New("pos: sale finalization failed and was compensated")
)
