package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBalance(ctx context.Context, account Account) (int64, error)
	ListBalances(ctx context.Context) ([]Balance, error)
	ListTransactions(ctx context.Context, account Account, filter HistoryFilter) ([]Transaction, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns wallet balances and the append-only transaction log.
// Balances are only ever derived from appended transactions; the cached
// value is updated in the same transaction that appends the entry.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	guard *shared.HaltGuard
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, guard *shared.HaltGuard) *Service {
	if guard == nil {
		guard = shared.NewHaltGuard()
	}
	return &Service{repo: repo, audit: audit, guard: guard}
}

// Credit appends an income entry and raises the cached balance.
func (s *Service) Credit(ctx context.Context, account Account, amount int64, category, description string) (Transaction, error) {
	if err := s.checkMovement(account, amount); err != nil {
		return Transaction{}, err
	}
	var entry Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.BalanceForUpdate(ctx, account); err != nil {
			return err
		}
		var err error
		entry, err = tx.Append(ctx, Transaction{
			Account:     account,
			Type:        TypeIncome,
			Amount:      amount,
			Category:    category,
			Description: description,
		})
		if err != nil {
			return err
		}
		return s.applyDelta(ctx, tx, account, amount)
	})
	if err != nil {
		return Transaction{}, err
	}
	s.recordAudit(ctx, "wallet:credit", entry)
	return entry, nil
}

// Debit appends an expense entry and lowers the cached balance. It fails
// with ErrInsufficientBalance rather than let the balance go negative.
func (s *Service) Debit(ctx context.Context, account Account, amount int64, category, description string) (Transaction, error) {
	if err := s.checkMovement(account, amount); err != nil {
		return Transaction{}, err
	}
	var entry Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.BalanceForUpdate(ctx, account)
		if err != nil {
			return err
		}
		if balance < amount {
			return fmt.Errorf("%s has %d, need %d: %w", account, balance, amount, ErrInsufficientBalance)
		}
		entry, err = tx.Append(ctx, Transaction{
			Account:     account,
			Type:        TypeExpense,
			Amount:      amount,
			Category:    category,
			Description: description,
		})
		if err != nil {
			return err
		}
		return s.applyDelta(ctx, tx, account, -amount)
	})
	if err != nil {
		return Transaction{}, err
	}
	s.recordAudit(ctx, "wallet:debit", entry)
	return entry, nil
}

// Transfer atomically moves money between two accounts. Both legs carry the
// same transfer id; either both are recorded or neither is. Accounts are
// locked in id order so two opposite transfers cannot deadlock.
func (s *Service) Transfer(ctx context.Context, from, to Account, amount int64, description string) (Transaction, Transaction, error) {
	if err := s.checkMovement(from, amount); err != nil {
		return Transaction{}, Transaction{}, err
	}
	if !to.Valid() {
		return Transaction{}, Transaction{}, fmt.Errorf("%q: %w", to, ErrUnknownAccount)
	}
	if from == to {
		return Transaction{}, Transaction{}, ErrSameAccount
	}
	if err := s.guard.Check(accountAggregate(to)); err != nil {
		return Transaction{}, Transaction{}, err
	}

	transferID := uuid.NewString()
	var outLeg, inLeg Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		first, second := from, to
		if second < first {
			first, second = second, first
		}
		balances := map[Account]int64{}
		for _, account := range []Account{first, second} {
			balance, err := tx.BalanceForUpdate(ctx, account)
			if err != nil {
				return err
			}
			balances[account] = balance
		}
		if balances[from] < amount {
			return fmt.Errorf("%s has %d, need %d: %w", from, balances[from], amount, ErrInsufficientBalance)
		}
		var err error
		outLeg, err = tx.Append(ctx, Transaction{
			Account:     from,
			Type:        TypeTransferOut,
			Amount:      amount,
			Category:    "transfer",
			Description: description,
			TransferID:  transferID,
		})
		if err != nil {
			return err
		}
		inLeg, err = tx.Append(ctx, Transaction{
			Account:     to,
			Type:        TypeTransferIn,
			Amount:      amount,
			Category:    "transfer",
			Description: description,
			TransferID:  transferID,
		})
		if err != nil {
			return err
		}
		if err := s.applyDelta(ctx, tx, from, -amount); err != nil {
			return err
		}
		return s.applyDelta(ctx, tx, to, amount)
	})
	if err != nil {
		return Transaction{}, Transaction{}, err
	}
	s.recordAudit(ctx, "wallet:transfer", outLeg)
	return outLeg, inLeg, nil
}

// Balance reads the cached balance for one account.
func (s *Service) Balance(ctx context.Context, account Account) (int64, error) {
	if !account.Valid() {
		return 0, fmt.Errorf("%q: %w", account, ErrUnknownAccount)
	}
	return s.repo.GetBalance(ctx, account)
}

// Balances reads every account balance.
func (s *Service) Balances(ctx context.Context) ([]Balance, error) {
	return s.repo.ListBalances(ctx)
}

// History returns the chronological transaction log for one account. The
// read never mutates state and can be resumed via HistoryFilter.AfterID.
func (s *Service) History(ctx context.Context, account Account, filter HistoryFilter) ([]Transaction, error) {
	if !account.Valid() {
		return nil, fmt.Errorf("%q: %w", account, ErrUnknownAccount)
	}
	if filter.Limit <= 0 {
		filter.Limit = 200
	}
	return s.repo.ListTransactions(ctx, account, filter)
}

func (s *Service) checkMovement(account Account, amount int64) error {
	if !account.Valid() {
		return fmt.Errorf("%q: %w", account, ErrUnknownAccount)
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.guard.Check(accountAggregate(account))
}

// applyDelta moves the cached balance and halts the account if the ledger
// ever reports a negative result despite the guards above.
func (s *Service) applyDelta(ctx context.Context, tx TxRepository, account Account, delta int64) error {
	newBalance, err := tx.AdjustBalance(ctx, account, delta)
	if err != nil {
		return err
	}
	if newBalance < 0 {
		s.guard.Halt(accountAggregate(account), fmt.Sprintf("balance went negative: %d", newBalance))
		return fmt.Errorf("account %s: %w", account, shared.ErrConsistency)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, entry Transaction) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "wallet_tx",
		EntityID: fmt.Sprintf("%d", entry.ID),
		Meta: map[string]any{
			"account":  string(entry.Account),
			"amount":   entry.Amount,
			"category": entry.Category,
		},
	})
}

func accountAggregate(account Account) string {
	return "wallet:" + string(account)
}
