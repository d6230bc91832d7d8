package refunds

import (
	"errors"
	"time"
)

// Status is the refund request lifecycle state. Transitions move forward
// only: pending→approved→refunded, or pending→rejected (terminal).
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusRefunded Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusRefunded:
		return true
	}
	return false
}

// RefundRequest references its sale by id only; the sale's totals are
// looked up server side on every transition.
type RefundRequest struct {
	ID              int64      `json:"id"`
	SaleID          int64      `json:"sale_id"`
	RequestedAmount int64      `json:"requested_amount"`
	ApprovedAmount  int64      `json:"approved_amount,omitempty"`
	Reason          string     `json:"reason"`
	Notes           string     `json:"notes,omitempty"`
	Status          Status     `json:"status"`
	RequestedBy     int64      `json:"requested_by,omitempty"`
	ApproverID      int64      `json:"approver_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	RefundedAt      *time.Time `json:"refunded_at,omitempty"`
}

// SubmitInput is a new refund request.
type SubmitInput struct {
	SaleID int64
	Amount int64
	Reason string
}

// ListFilter narrows request listings. Empty status means all.
type ListFilter struct {
	Status  Status
	SaleID  int64
	AfterID int64
	Limit   int
}

var (
	ErrInvalidAmount     = errors.New("refunds: amount must be positive")
	ErrRefundExceedsSale = errors.New("refunds: amount exceeds the sale's refundable balance")
	ErrInvalidTransition = errors.New("refunds: transition not allowed from current status")
	ErrPayoutFailed      = errors.New("refunds: approved but payout failed, retry later")
)
