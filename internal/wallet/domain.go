package wallet

import (
	"errors"
	"time"
)

// Account enumerates the payment rails the store accepts. The set is closed;
// an unknown method is rejected before it reaches the ledger.
type Account string

const (
	AccountCash      Account = "cash"
	AccountBank      Account = "bank"
	AccountEasypaisa Account = "easypaisa"
	AccountJazzcash  Account = "jazzcash"
	AccountCard      Account = "card"
)

// Accounts lists every ledger account in id order.
func Accounts() []Account {
	return []Account{AccountBank, AccountCard, AccountCash, AccountEasypaisa, AccountJazzcash}
}

// Valid reports whether the account is one of the closed set.
func (a Account) Valid() bool {
	switch a {
	case AccountCash, AccountBank, AccountEasypaisa, AccountJazzcash, AccountCard:
		return true
	}
	return false
}

// TransactionType enumerates wallet movements.
type TransactionType string

const (
	TypeIncome      TransactionType = "INCOME"
	TypeExpense     TransactionType = "EXPENSE"
	TypeTransferOut TransactionType = "TRANSFER_OUT"
	TypeTransferIn  TransactionType = "TRANSFER_IN"
)

// Transaction is one append-only ledger entry. Amounts are positive paisa;
// transfer legs share a TransferID and reference each other through it.
type Transaction struct {
	ID          int64           `json:"id"`
	Account     Account         `json:"account"`
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	TransferID  string          `json:"transfer_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Balance is the cached running sum of one account's transaction log.
type Balance struct {
	Account Account `json:"account"`
	Amount  int64   `json:"amount"`
}

// HistoryFilter narrows a History read. AfterID makes the read restartable:
// pass the last seen transaction id to resume.
type HistoryFilter struct {
	From    time.Time
	To      time.Time
	AfterID int64
	Limit   int
}

var (
	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("wallet: amount must be positive")
	// ErrUnknownAccount indicates a payment method outside the closed set.
	ErrUnknownAccount = errors.New("wallet: unknown account")
	// ErrInsufficientBalance indicates a debit that would go below zero.
	ErrInsufficientBalance = errors.New("wallet: insufficient balance")
	// ErrSameAccount indicates a transfer onto itself.
	ErrSameAccount = errors.New("wallet: transfer requires two distinct accounts")
)
