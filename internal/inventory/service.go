package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetStockLevel(ctx context.Context, productID int64) (StockLevel, error)
	SumRemaining(ctx context.Context, productID int64) (int64, error)
	ListLots(ctx context.Context, productID int64) ([]CostLot, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns per-product stock and the FIFO cost-lot ledger. Every
// read-check-drain sequence runs inside one repository transaction with the
// product rows locked, which serialises concurrent mutation per product.
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

// ReceiveStock appends a new cost lot and bumps the cached stock quantity.
func (s *Service) ReceiveStock(ctx context.Context, input ReceiveInput) (CostLot, error) {
	if input.ProductID == 0 {
		return CostLot{}, fmt.Errorf("inventory: product required")
	}
	if input.Qty <= 0 {
		return CostLot{}, ErrInvalidQuantity
	}
	if input.BuyingRate < 0 {
		return CostLot{}, ErrInvalidRate
	}
	if err := s.guard.Check(productAggregate(input.ProductID)); err != nil {
		return CostLot{}, err
	}

	var lot CostLot
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockProducts(ctx, []int64{input.ProductID}); err != nil {
			return err
		}
		created, err := tx.InsertLot(ctx, input)
		if err != nil {
			return err
		}
		lot = created
		_, err = tx.AdjustStock(ctx, input.ProductID, input.Qty)
		return err
	})
	if err != nil {
		return CostLot{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "inventory:receive",
			Entity:   "cost_lot",
			EntityID: fmt.Sprintf("%d", lot.ID),
			Meta: map[string]any{
				"product_id":  input.ProductID,
				"qty":         input.Qty,
				"buying_rate": input.BuyingRate,
			},
		})
	}
	return lot, nil
}

// Consume drains stock for a single product in strict receipt order.
func (s *Service) Consume(ctx context.Context, productID, qty int64) (ConsumeResult, error) {
	results, err := s.ConsumeBatch(ctx, []Demand{{ProductID: productID, Qty: qty}})
	if err != nil {
		return ConsumeResult{}, err
	}
	return results[0], nil
}

// ConsumeBatch drains stock for every demand inside one transaction. If any
// demand cannot be covered the whole batch fails and no drain is observable.
// Lots are walked oldest first; ties on the received timestamp fall back to
// the insert sequence, never the buying rate.
func (s *Service) ConsumeBatch(ctx context.Context, demands []Demand) ([]ConsumeResult, error) {
	if len(demands) == 0 {
		return nil, ErrInvalidQuantity
	}
	productIDs := make([]int64, 0, len(demands))
	seen := make(map[int64]bool, len(demands))
	for _, d := range demands {
		if d.Qty <= 0 {
			return nil, ErrInvalidQuantity
		}
		if d.ProductID == 0 {
			return nil, fmt.Errorf("inventory: product required")
		}
		if err := s.guard.Check(productAggregate(d.ProductID)); err != nil {
			return nil, err
		}
		if !seen[d.ProductID] {
			seen[d.ProductID] = true
			productIDs = append(productIDs, d.ProductID)
		}
	}
	// Fixed lock order prevents deadlock between overlapping carts.
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	results := make([]ConsumeResult, len(demands))
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockProducts(ctx, productIDs); err != nil {
			return err
		}
		for i, d := range demands {
			result, err := s.drainProduct(ctx, tx, d)
			if err != nil {
				return err
			}
			results[i] = result
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) drainProduct(ctx context.Context, tx TxRepository, d Demand) (ConsumeResult, error) {
	lots, err := tx.OpenLotsForUpdate(ctx, d.ProductID)
	if err != nil {
		return ConsumeResult{}, err
	}
	result := ConsumeResult{ProductID: d.ProductID, Qty: d.Qty}
	need := d.Qty
	for _, lot := range lots {
		if need == 0 {
			break
		}
		if lot.RemainingQty > lot.OriginalQty || lot.RemainingQty < 0 {
			s.guard.Halt(productAggregate(d.ProductID), fmt.Sprintf("lot %d remaining %d outside [0,%d]", lot.ID, lot.RemainingQty, lot.OriginalQty))
			return ConsumeResult{}, fmt.Errorf("lot %d: %w", lot.ID, shared.ErrConsistency)
		}
		take := lot.RemainingQty
		if take > need {
			take = need
		}
		if take == 0 {
			continue
		}
		if err := tx.DrainLot(ctx, lot.ID, take); err != nil {
			return ConsumeResult{}, err
		}
		result.Lots = append(result.Lots, LotDraw{LotID: lot.ID, Qty: take, Rate: lot.BuyingRate})
		result.TotalCost += take * lot.BuyingRate
		need -= take
	}
	if need > 0 {
		return ConsumeResult{}, fmt.Errorf("product %d needs %d more: %w", d.ProductID, need, ErrInsufficientStock)
	}
	if _, err := tx.AdjustStock(ctx, d.ProductID, -d.Qty); err != nil {
		return ConsumeResult{}, err
	}
	return result, nil
}

// Restock returns previously consumed quantities to their lots. It is the
// compensation path for a sale that failed after its stock was drained.
func (s *Service) Restock(ctx context.Context, consumed []ConsumeResult) error {
	if len(consumed) == 0 {
		return nil
	}
	productIDs := make([]int64, 0, len(consumed))
	seen := make(map[int64]bool, len(consumed))
	for _, c := range consumed {
		if !seen[c.ProductID] {
			seen[c.ProductID] = true
			productIDs = append(productIDs, c.ProductID)
		}
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockProducts(ctx, productIDs); err != nil {
			return err
		}
		for _, c := range consumed {
			for _, draw := range c.Lots {
				restored, err := tx.RestoreLot(ctx, draw.LotID, draw.Qty)
				if err != nil {
					return err
				}
				if restored.RemainingQty > restored.OriginalQty {
					s.guard.Halt(productAggregate(c.ProductID), fmt.Sprintf("restore overflowed lot %d", draw.LotID))
					return fmt.Errorf("lot %d: %w", draw.LotID, shared.ErrConsistency)
				}
			}
			if _, err := tx.AdjustStock(ctx, c.ProductID, c.Qty); err != nil {
				return err
			}
		}
		return nil
	})
}

// CurrentStock reports the product quantity. The cached value is checked
// against the sum of open lot remainders; a drift halts the product.
func (s *Service) CurrentStock(ctx context.Context, productID int64) (int64, error) {
	level, err := s.repo.GetStockLevel(ctx, productID)
	if err != nil {
		return 0, err
	}
	lotSum, err := s.repo.SumRemaining(ctx, productID)
	if err != nil {
		return 0, err
	}
	if lotSum != level.Qty {
		s.guard.Halt(productAggregate(productID), fmt.Sprintf("cached stock %d != lot sum %d", level.Qty, lotSum))
		return 0, fmt.Errorf("product %d: %w", productID, shared.ErrConsistency)
	}
	return level.Qty, nil
}

// IsLowStock reports whether stock is at or under the product threshold.
func (s *Service) IsLowStock(ctx context.Context, productID int64) (bool, error) {
	level, err := s.repo.GetStockLevel(ctx, productID)
	if err != nil {
		return false, err
	}
	return level.Qty <= level.Threshold, nil
}

// LotHistory lists every lot for a product, drained ones included.
func (s *Service) LotHistory(ctx context.Context, productID int64) ([]CostLot, error) {
	return s.repo.ListLots(ctx, productID)
}

func productAggregate(productID int64) string {
	return fmt.Sprintf("product:%d", productID)
}
