package wallet

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haiderali7066/Grocery-store-ERP/internal/platform/db"
)

// Repository persists wallet accounts and their transaction log in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	BalanceForUpdate(ctx context.Context, account Account) (int64, error)
	Append(ctx context.Context, entry Transaction) (Transaction, error)
	AdjustBalance(ctx context.Context, account Account, delta int64) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("wallet repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetBalance reads one cached account balance.
func (r *Repository) GetBalance(ctx context.Context, account Account) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `SELECT balance FROM wallet_accounts WHERE id=$1`, string(account)).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%q: %w", account, ErrUnknownAccount)
	}
	return balance, err
}

// ListBalances reads every cached balance in account-id order.
func (r *Repository) ListBalances(ctx context.Context) ([]Balance, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, balance FROM wallet_accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		var id string
		if err := rows.Scan(&id, &b.Amount); err != nil {
			return nil, err
		}
		b.Account = Account(id)
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// ListTransactions reads the account log chronologically.
func (r *Repository) ListTransactions(ctx context.Context, account Account, filter HistoryFilter) ([]Transaction, error) {
	query := `SELECT id, account_id, tx_type, amount, category, description, COALESCE(transfer_id::text, ''), created_at
FROM wallet_transactions WHERE account_id=$1`
	args := []any{string(account)}
	argCount := 1

	if !filter.From.IsZero() {
		argCount++
		query += ` AND created_at >= $` + strconv.Itoa(argCount)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		argCount++
		query += ` AND created_at < $` + strconv.Itoa(argCount)
		args = append(args, filter.To)
	}
	if filter.AfterID > 0 {
		argCount++
		query += ` AND id > $` + strconv.Itoa(argCount)
		args = append(args, filter.AfterID)
	}
	argCount++
	query += ` ORDER BY created_at, id LIMIT $` + strconv.Itoa(argCount)
	args = append(args, filter.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Transaction
	for rows.Next() {
		var entry Transaction
		var accountID, txType string
		if err := rows.Scan(&entry.ID, &accountID, &txType, &entry.Amount, &entry.Category, &entry.Description, &entry.TransferID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Account = Account(accountID)
		entry.Type = TransactionType(txType)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *txRepository) BalanceForUpdate(ctx context.Context, account Account) (int64, error) {
	var balance int64
	err := r.tx.QueryRow(ctx, `SELECT balance FROM wallet_accounts WHERE id=$1 FOR UPDATE`, string(account)).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%q: %w", account, ErrUnknownAccount)
	}
	return balance, err
}

func (r *txRepository) Append(ctx context.Context, entry Transaction) (Transaction, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO wallet_transactions (account_id, tx_type, amount, category, description, transfer_id, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, NOW())
RETURNING id, created_at`,
		string(entry.Account), string(entry.Type), entry.Amount, entry.Category, entry.Description, entry.TransferID).
		Scan(&entry.ID, &entry.CreatedAt)
	return entry, err
}

func (r *txRepository) AdjustBalance(ctx context.Context, account Account, delta int64) (int64, error) {
	var balance int64
	err := r.tx.QueryRow(ctx, `UPDATE wallet_accounts SET balance = balance + $2, updated_at = NOW()
WHERE id=$1 RETURNING balance`, string(account), delta).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%q: %w", account, ErrUnknownAccount)
	}
	return balance, err
}
