package inventory

import (
	"errors"
	"time"
)

// CostLot is a batch of stock received at one buying rate. Lots are never
// deleted, only drained; remaining is non-increasing except through an
// explicit compensation restore, and never exceeds the original quantity.
type CostLot struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	ReceivedAt  time.Time `json:"received_at"`
	OriginalQty int64     `json:"original_qty"`
	RemainingQty int64    `json:"remaining_qty"`
	BuyingRate  int64     `json:"buying_rate"`
	Note        string    `json:"note,omitempty"`
}

// ReceiveInput describes a stock-in event (purchase receipt).
type ReceiveInput struct {
	ProductID  int64
	Qty        int64
	BuyingRate int64
	SupplierID int64
	Note       string
	ActorID    int64
}

// Demand is one cart line's stock requirement.
type Demand struct {
	ProductID int64
	Qty       int64
}

// LotDraw records how much was taken from one lot during a consume.
type LotDraw struct {
	LotID int64 `json:"lot_id"`
	Qty   int64 `json:"qty"`
	Rate  int64 `json:"rate"`
}

// ConsumeResult is the outcome of consuming stock for one demand: the lots
// drained in receipt order and the cost of goods they carry.
type ConsumeResult struct {
	ProductID int64    `json:"product_id"`
	Qty       int64    `json:"qty"`
	Lots      []LotDraw `json:"lots"`
	TotalCost int64    `json:"total_cost"`
}

// StockLevel pairs the cached quantity with its low-stock threshold.
type StockLevel struct {
	ProductID int64 `json:"product_id"`
	Qty       int64 `json:"qty"`
	Threshold int64 `json:"threshold"`
}

var (
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrInvalidRate indicates a negative buying rate.
	ErrInvalidRate = errors.New("inventory: buying rate must be >= 0")
	// ErrInsufficientStock indicates the open lots cannot cover the demand.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)
