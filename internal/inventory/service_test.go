package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryInvRepo struct {
	lots   map[int64]*CostLot
	order  []int64
	stocks map[int64]int64
	limits map[int64]int64
	nextID int64
}

type memoryInvTx struct {
	repo *memoryInvRepo
}

func newMemoryInvRepo() *memoryInvRepo {
	return &memoryInvRepo{
		lots:   make(map[int64]*CostLot),
		stocks: make(map[int64]int64),
		limits: make(map[int64]int64),
	}
}

func (r *memoryInvRepo) snapshot() map[int64]int64 {
	out := make(map[int64]int64, len(r.stocks))
	for k, v := range r.stocks {
		out[k] = v
	}
	return out
}

func (r *memoryInvRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	// Rollback semantics: run against a copy, swap in on success.
	backupLots := make(map[int64]*CostLot, len(r.lots))
	for id, lot := range r.lots {
		copied := *lot
		backupLots[id] = &copied
	}
	backupStocks := r.snapshot()
	if err := fn(ctx, &memoryInvTx{repo: r}); err != nil {
		r.lots = backupLots
		r.stocks = backupStocks
		return err
	}
	return nil
}

func (r *memoryInvRepo) GetStockLevel(ctx context.Context, productID int64) (StockLevel, error) {
	return StockLevel{ProductID: productID, Qty: r.stocks[productID], Threshold: r.limits[productID]}, nil
}

func (r *memoryInvRepo) SumRemaining(ctx context.Context, productID int64) (int64, error) {
	var sum int64
	for _, lot := range r.lots {
		if lot.ProductID == productID {
			sum += lot.RemainingQty
		}
	}
	return sum, nil
}

func (r *memoryInvRepo) ListLots(ctx context.Context, productID int64) ([]CostLot, error) {
	var out []CostLot
	for _, id := range r.order {
		if lot := r.lots[id]; lot.ProductID == productID {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (tx *memoryInvTx) LockProducts(ctx context.Context, productIDs []int64) error {
	return nil
}

func (tx *memoryInvTx) InsertLot(ctx context.Context, input ReceiveInput) (CostLot, error) {
	tx.repo.nextID++
	lot := &CostLot{
		ID:           tx.repo.nextID,
		ProductID:    input.ProductID,
		ReceivedAt:   time.Now(),
		OriginalQty:  input.Qty,
		RemainingQty: input.Qty,
		BuyingRate:   input.BuyingRate,
		Note:         input.Note,
	}
	tx.repo.lots[lot.ID] = lot
	tx.repo.order = append(tx.repo.order, lot.ID)
	return *lot, nil
}

func (tx *memoryInvTx) OpenLotsForUpdate(ctx context.Context, productID int64) ([]CostLot, error) {
	var out []CostLot
	for _, id := range tx.repo.order {
		if lot := tx.repo.lots[id]; lot.ProductID == productID && lot.RemainingQty > 0 {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (tx *memoryInvTx) DrainLot(ctx context.Context, lotID, qty int64) error {
	lot := tx.repo.lots[lotID]
	if lot == nil || lot.RemainingQty < qty {
		return fmt.Errorf("lot %d cannot cover %d: %w", lotID, qty, ErrInsufficientStock)
	}
	lot.RemainingQty -= qty
	return nil
}

func (tx *memoryInvTx) RestoreLot(ctx context.Context, lotID, qty int64) (CostLot, error) {
	lot := tx.repo.lots[lotID]
	lot.RemainingQty += qty
	return *lot, nil
}

func (tx *memoryInvTx) AdjustStock(ctx context.Context, productID, delta int64) (int64, error) {
	tx.repo.stocks[productID] += delta
	return tx.repo.stocks[productID], nil
}

func TestFIFOConsumeAcrossLots(t *testing.T) {
	repo := newMemoryInvRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.ReceiveStock(ctx, ReceiveInput{ProductID: 1, Qty: 10, BuyingRate: 5})
	require.NoError(t, err)
	_, err = svc.ReceiveStock(ctx, ReceiveInput{ProductID: 1, Qty: 10, BuyingRate: 8})
	require.NoError(t, err)

	result, err := svc.Consume(ctx, 1, 12)
	require.NoError(t, err)
	// 10 @ 5 from the older lot, then 2 @ 8.
	require.Len(t, result.Lots, 2)
	require.Equal(t, int64(10), result.Lots[0].Qty)
	require.Equal(t, int64(5), result.Lots[0].Rate)
	require.Equal(t, int64(2), result.Lots[1].Qty)
	require.Equal(t, int64(8), result.Lots[1].Rate)
	require.Equal(t, int64(66), result.TotalCost)

	lots, err := svc.LotHistory(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(0), lots[0].RemainingQty)
	require.Equal(t, int64(8), lots[1].RemainingQty)

	stock, err := svc.CurrentStock(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(8), stock)
}

func TestConsumeNeverSkipsOlderLot(t *testing.T) {
	repo := newMemoryInvRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	// Older lot is more expensive; FIFO must still drain it first.
	_, err := svc.ReceiveStock(ctx, ReceiveInput{ProductID: 1, Qty: 5, BuyingRate: 90})
	require.NoError(t, err)
	_, err = svc.ReceiveStock(ctx, ReceiveInput{ProductID: 1, Qty: 5, BuyingRate: 10})
	require.NoError(t, err)

	result, err := svc.Consume(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, result.Lots, 1)
	require.Equal(t, int64(90), result.Lots[0].Rate)
	require.Equal(t, int64(270), result.TotalCost)
}

func TestConsumeInsufficientStockLeavesNothingConsumed(t *testing.T) {
	repo := newMemoryInvRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.ReceiveStock(ctx, ReceiveInput{ProductID: 1, Qty: 4, BuyingRate: 5})
	require.NoError(t, err)

	_, err = svc.Consume(ctx, 1, 9)
	require.ErrorIs(t, err, ErrInsufficientStock)

	stock, err := svc.CurrentStock(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(4), stock)
	sum, _ := repo.SumRemaining(ctx, 1)
	require.Equal(t, int64(4), sum)
}

func TestConsumeBatchIsAllOrNothing(t *testing.T) {
	repo := newMemoryInvRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.ReceiveStock(ctx, ReceiveInput{ProductID: 1, Qty: 10, BuyingRate: 5})
	require.NoError(t, err)
	_, err = svc.ReceiveStock(ctx, ReceiveInput{ProductID: 2, Qty: 1, BuyingRate: 7})
	require.NoError(t, err)

	before := repo.snapshot()
	_, err = svc.ConsumeBatch(ctx, []Demand{
		{ProductID: 1, Qty: 3},
		{ProductID: 2, Qty: 5}, // cannot be covered
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, before, repo.snapshot())
}

func TestReceiveStockValidation(t *testing.T) {
	repo := newMemoryInvRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.ReceiveStock(ctx, ReceiveInput{ProductID: 1, Qty: 0, BuyingRate: 5})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.ReceiveStock(ctx, ReceiveInput{ProductID: 1, Qty: 5, BuyingRate: -1})
	require.ErrorIs(t, err, ErrInvalidRate)
	_, err = svc.Consume(ctx, 1, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRestockReturnsQuantitiesToLots(t *testing.T) {
	repo := newMemoryInvRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.ReceiveStock(ctx, ReceiveInput{ProductID: 1, Qty: 10, BuyingRate: 5})
	require.NoError(t, err)
	result, err := svc.Consume(ctx, 1, 6)
	require.NoError(t, err)

	require.NoError(t, svc.Restock(ctx, []ConsumeResult{result}))

	stock, err := svc.CurrentStock(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(10), stock)
	lots, _ := svc.LotHistory(ctx, 1)
	require.Equal(t, int64(10), lots[0].RemainingQty)
}

func TestIsLowStock(t *testing.T) {
	repo := newMemoryInvRepo()
	repo.limits[1] = 5
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.ReceiveStock(ctx, ReceiveInput{ProductID: 1, Qty: 6, BuyingRate: 5})
	require.NoError(t, err)

	low, err := svc.IsLowStock(ctx, 1)
	require.NoError(t, err)
	require.False(t, low)

	_, err = svc.Consume(ctx, 1, 1)
	require.NoError(t, err)
	low, err = svc.IsLowStock(ctx, 1)
	require.NoError(t, err)
	require.True(t, low)
}

func TestStockMatchesLotSumAfterEverySequence(t *testing.T) {
	repo := newMemoryInvRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	steps := []struct {
		receive int64
		consume int64
	}{
		{receive: 7}, {consume: 3}, {receive: 2}, {consume: 5}, {receive: 4}, {consume: 1},
	}
	for _, step := range steps {
		if step.receive > 0 {
			_, err := svc.ReceiveStock(ctx, ReceiveInput{ProductID: 1, Qty: step.receive, BuyingRate: 11})
			require.NoError(t, err)
		}
		if step.consume > 0 {
			_, err := svc.Consume(ctx, 1, step.consume)
			require.NoError(t, err)
		}
		stock, err := svc.CurrentStock(ctx, 1)
		require.NoError(t, err)
		sum, err := repo.SumRemaining(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, sum, stock)
	}
}
