package pos

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/haiderali7066/Grocery-store-ERP/internal/catalog"
	"github.com/haiderali7066/Grocery-store-ERP/internal/inventory"
	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
	"github.com/haiderali7066/Grocery-store-ERP/internal/tax"
	"github.com/haiderali7066/Grocery-store-ERP/internal/wallet"
)

// RepositoryPort defines persistence for finalized sales.
type RepositoryPort interface {
	CreateSale(ctx context.Context, sale Sale) (Sale, error)
	GetSale(ctx context.Context, id int64) (Sale, error)
	GetSaleByNumber(ctx context.Context, number string) (Sale, error)
	ListSales(ctx context.Context, filter ListFilter) ([]Sale, error)
	UpdateFBRStatus(ctx context.Context, id int64, status FBRStatus, invoiceNumber string) error
}

// CatalogPort resolves authoritative product data at finalization time.
type CatalogPort interface {
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
}

// InventoryPort drains and restores cost lots.
type InventoryPort interface {
	ConsumeBatch(ctx context.Context, demands []inventory.Demand) ([]inventory.ConsumeResult, error)
	Restock(ctx context.Context, consumed []inventory.ConsumeResult) error
}

// WalletPort moves money on the payment rails. Debit is only used to
// reverse a credit when the final persist fails.
type WalletPort interface {
	Credit(ctx context.Context, account wallet.Account, amount int64, category, description string) (wallet.Transaction, error)
	Debit(ctx context.Context, account wallet.Account, amount int64, category, description string) (wallet.Transaction, error)
}

// QueuePort hands a finalized sale to the tax-authority submission worker.
type QueuePort interface {
	EnqueueFBRSubmit(ctx context.Context, saleID int64) error
}

// IdemPort guards FinalizeSale against duplicate submissions.
type IdemPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// AuditPort records who finalized what.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// ReportsPort invalidates cached report snapshots after a finalized sale.
type ReportsPort interface {
	Invalidate(ctx context.Context) error
}

// Service orchestrates point-of-sale transactions.
type Service struct {
	repo    RepositoryPort
	catalog CatalogPort
	stock   InventoryPort
	wallet  WalletPort
	queue   QueuePort
	idem    IdemPort
	audit   AuditPort
	reports ReportsPort
	log     *slog.Logger
}

func NewService(repo RepositoryPort, cat CatalogPort, stock InventoryPort, wal WalletPort, queue QueuePort, idem IdemPort, audit AuditPort, reports ReportsPort, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, catalog: cat, stock: stock, wallet: wal, queue: queue, idem: idem, audit: audit, reports: reports, log: log}
}

// FinalizeSale validates the cart, drains stock FIFO in one atomic batch,
// computes tax per line, credits the payment rail and persists the sale.
// Totals are recomputed server side from catalog prices; client-proposed
// numbers are never trusted. Any failure after stock was drained restores
// the drained lots (and reverses the credit when the persist fails) so the
// caller can retry against unchanged state.
func (s *Service) FinalizeSale(ctx context.Context, input SaleInput) (Sale, error) {
	if len(input.Lines) == 0 {
		return Sale{}, ErrEmptyCart
	}
	if !input.PaymentMethod.Valid() {
		return Sale{}, fmt.Errorf("%q: %w", input.PaymentMethod, ErrUnknownPaymentMethod)
	}
	for _, line := range input.Lines {
		if line.Qty <= 0 {
			return Sale{}, fmt.Errorf("product %d: %w", line.ProductID, ErrInvalidQuantity)
		}
	}
	if input.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, input.IdempotencyKey, "pos"); err != nil {
			return Sale{}, err
		}
	}

	sale, err := s.finalize(ctx, input)
	if err != nil && input.IdempotencyKey != "" && s.idem != nil {
		if delErr := s.idem.Delete(ctx, input.IdempotencyKey); delErr != nil {
			s.log.Warn("pos: releasing idempotency key failed", "key", input.IdempotencyKey, "error", delErr)
		}
	}
	return sale, err
}

func (s *Service) finalize(ctx context.Context, input SaleInput) (Sale, error) {
	products := make([]catalog.Product, len(input.Lines))
	demands := make([]inventory.Demand, len(input.Lines))
	for i, line := range input.Lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return Sale{}, fmt.Errorf("resolve product %d: %w", line.ProductID, err)
		}
		if !product.IsActive {
			return Sale{}, fmt.Errorf("product %d: %w", line.ProductID, ErrProductInactive)
		}
		products[i] = product
		demands[i] = inventory.Demand{ProductID: line.ProductID, Qty: line.Qty}
	}

	consumed, err := s.stock.ConsumeBatch(ctx, demands)
	if err != nil {
		return Sale{}, err
	}

	sale := Sale{
		Number:        saleNumber(),
		PaymentMethod: input.PaymentMethod,
		FBRStatus:     FBRPending,
		CashierID:     input.CashierID,
		CreatedAt:     time.Now().UTC(),
		Lines:         make([]SaleLine, len(input.Lines)),
	}
	for i, line := range input.Lines {
		product := products[i]
		subtotal := line.Qty * product.BasePrice
		lineTax := tax.ComputeLineTax(subtotal, product.GSTRateBps, product.TaxExempt)
		lineCost := consumed[i].TotalCost
		sale.Lines[i] = SaleLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Qty:         line.Qty,
			UnitPrice:   product.BasePrice,
			Subtotal:    subtotal,
			GSTRateBps:  product.GSTRateBps,
			TaxAmount:   lineTax,
			// UnitCost is informational and rounds down when the FIFO draw
			// spans lots with different rates; LineCost is the exact figure
			// and is what COGS and profit are computed from.
			UnitCost: lineCost / line.Qty,
			LineCost: lineCost,
		}
		sale.Subtotal += subtotal
		sale.TaxTotal += lineTax
		sale.CostOfGoods += lineCost
	}
	sale.GrandTotal = sale.Subtotal + sale.TaxTotal
	sale.Profit = sale.GrandTotal - sale.TaxTotal - sale.CostOfGoods

	if _, err := s.wallet.Credit(ctx, input.PaymentMethod.Account(), sale.GrandTotal, "sale", sale.Number); err != nil {
		s.compensateStock(ctx, sale.Number, consumed)
		return Sale{}, fmt.Errorf("%w: wallet credit: %v", ErrSaleFinalizationFailed, err)
	}

	persisted, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		if _, debitErr := s.wallet.Debit(ctx, input.PaymentMethod.Account(), sale.GrandTotal, "sale_reversal", sale.Number); debitErr != nil {
			s.log.Error("pos: reversing wallet credit failed", "sale", sale.Number, "error", debitErr)
		}
		s.compensateStock(ctx, sale.Number, consumed)
		return Sale{}, fmt.Errorf("%w: persist: %v", ErrSaleFinalizationFailed, err)
	}

	if s.queue != nil {
		if err := s.queue.EnqueueFBRSubmit(ctx, persisted.ID); err != nil {
			s.log.Warn("pos: enqueue tax submission failed", "sale", persisted.Number, "error", err)
		}
	}
	if s.reports != nil {
		if err := s.reports.Invalidate(ctx); err != nil {
			s.log.Warn("pos: report cache invalidation failed", "sale", persisted.Number, "error", err)
		}
	}
	s.recordAudit(ctx, persisted)
	return persisted, nil
}

func (s *Service) compensateStock(ctx context.Context, number string, consumed []inventory.ConsumeResult) {
	if err := s.stock.Restock(ctx, consumed); err != nil {
		s.log.Error("pos: restock compensation failed", "sale", number, "error", err)
	}
}

// GetSale loads one finalized sale with its lines.
func (s *Service) GetSale(ctx context.Context, id int64) (Sale, error) {
	return s.repo.GetSale(ctx, id)
}

// GetSaleByNumber loads a sale by its receipt number.
func (s *Service) GetSaleByNumber(ctx context.Context, number string) (Sale, error) {
	return s.repo.GetSaleByNumber(ctx, number)
}

// ListSales returns sales in the given window, oldest first.
func (s *Service) ListSales(ctx context.Context, filter ListFilter) ([]Sale, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.ListSales(ctx, filter)
}

// UpdateFBRStatus records the outcome of a tax-authority submission. A sale
// already marked success is never downgraded.
func (s *Service) UpdateFBRStatus(ctx context.Context, id int64, status FBRStatus, invoiceNumber string) error {
	if !status.Valid() {
		return fmt.Errorf("pos: invalid fbr status %q", status)
	}
	return s.repo.UpdateFBRStatus(ctx, id, status, invoiceNumber)
}

func (s *Service) recordAudit(ctx context.Context, sale Sale) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorFromContext(ctx),
		Action:   "pos:finalize_sale",
		Entity:   "sale",
		EntityID: fmt.Sprintf("%d", sale.ID),
		Meta: map[string]any{
			"number":      sale.Number,
			"grand_total": sale.GrandTotal,
			"method":      string(sale.PaymentMethod),
		},
	})
}

func saleNumber() string {
	return "SALE-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
