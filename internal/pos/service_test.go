package pos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/haiderali7066/Grocery-store-ERP/internal/catalog"
	"github.com/haiderali7066/Grocery-store-ERP/internal/inventory"
	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
	"github.com/haiderali7066/Grocery-store-ERP/internal/wallet"
)

type fakeCatalog struct {
	products map[int64]catalog.Product
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return catalog.Product{}, shared.ErrNotFound
	}
	return product, nil
}

type stockLot struct {
	qty  int64
	rate int64
}

type fakeStock struct {
	lots map[int64][]stockLot
}

func (f *fakeStock) remaining(productID int64) int64 {
	var sum int64
	for _, lot := range f.lots[productID] {
		sum += lot.qty
	}
	return sum
}

func (f *fakeStock) ConsumeBatch(ctx context.Context, demands []inventory.Demand) ([]inventory.ConsumeResult, error) {
	for _, d := range demands {
		if f.remaining(d.ProductID) < d.Qty {
			return nil, inventory.ErrInsufficientStock
		}
	}
	results := make([]inventory.ConsumeResult, len(demands))
	for i, d := range demands {
		result := inventory.ConsumeResult{ProductID: d.ProductID, Qty: d.Qty}
		need := d.Qty
		lots := f.lots[d.ProductID]
		for j := range lots {
			if need == 0 {
				break
			}
			take := min(need, lots[j].qty)
			if take == 0 {
				continue
			}
			lots[j].qty -= take
			need -= take
			result.Lots = append(result.Lots, inventory.LotDraw{LotID: int64(j + 1), Qty: take, Rate: lots[j].rate})
			result.TotalCost += take * lots[j].rate
		}
		f.lots[d.ProductID] = lots
		results[i] = result
	}
	return results, nil
}

func (f *fakeStock) Restock(ctx context.Context, consumed []inventory.ConsumeResult) error {
	for _, c := range consumed {
		lots := f.lots[c.ProductID]
		for _, draw := range c.Lots {
			lots[draw.LotID-1].qty += draw.Qty
		}
		f.lots[c.ProductID] = lots
	}
	return nil
}

type fakeWallet struct {
	balances   map[wallet.Account]int64
	failCredit bool
}

func (f *fakeWallet) Credit(ctx context.Context, account wallet.Account, amount int64, category, description string) (wallet.Transaction, error) {
	if f.failCredit {
		return wallet.Transaction{}, errors.New("wallet unavailable")
	}
	f.balances[account] += amount
	return wallet.Transaction{Account: account, Type: wallet.TypeIncome, Amount: amount}, nil
}

func (f *fakeWallet) Debit(ctx context.Context, account wallet.Account, amount int64, category, description string) (wallet.Transaction, error) {
	f.balances[account] -= amount
	return wallet.Transaction{Account: account, Type: wallet.TypeExpense, Amount: amount}, nil
}

type fakeSaleRepo struct {
	sales      map[int64]Sale
	nextID     int64
	failCreate bool
}

func (f *fakeSaleRepo) CreateSale(ctx context.Context, sale Sale) (Sale, error) {
	if f.failCreate {
		return Sale{}, errors.New("database down")
	}
	f.nextID++
	sale.ID = f.nextID
	f.sales[sale.ID] = sale
	return sale, nil
}

func (f *fakeSaleRepo) GetSale(ctx context.Context, id int64) (Sale, error) {
	sale, ok := f.sales[id]
	if !ok {
		return Sale{}, shared.ErrNotFound
	}
	return sale, nil
}

func (f *fakeSaleRepo) GetSaleByNumber(ctx context.Context, number string) (Sale, error) {
	for _, sale := range f.sales {
		if sale.Number == number {
			return sale, nil
		}
	}
	return Sale{}, shared.ErrNotFound
}

func (f *fakeSaleRepo) ListSales(ctx context.Context, filter ListFilter) ([]Sale, error) {
	var out []Sale
	for _, sale := range f.sales {
		out = append(out, sale)
	}
	return out, nil
}

func (f *fakeSaleRepo) UpdateFBRStatus(ctx context.Context, id int64, status FBRStatus, invoiceNumber string) error {
	sale, ok := f.sales[id]
	if !ok {
		return shared.ErrNotFound
	}
	if sale.FBRStatus != FBRSuccess {
		sale.FBRStatus = status
		sale.FBRInvoiceNumber = invoiceNumber
		f.sales[id] = sale
	}
	return nil
}

type fakeIdem struct {
	keys map[string]bool
}

func (f *fakeIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	if f.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = true
	return nil
}

func (f *fakeIdem) Delete(ctx context.Context, key string) error {
	delete(f.keys, key)
	return nil
}

type fakeReports struct {
	bumps int
}

func (f *fakeReports) Invalidate(ctx context.Context) error {
	f.bumps++
	return nil
}

type posFixture struct {
	svc     *Service
	repo    *fakeSaleRepo
	stock   *fakeStock
	wallet  *fakeWallet
	catalog *fakeCatalog
	idem    *fakeIdem
	reports *fakeReports
}

func newPOSFixture() *posFixture {
	f := &posFixture{
		repo: &fakeSaleRepo{sales: make(map[int64]Sale)},
		stock: &fakeStock{lots: map[int64][]stockLot{
			1: {{qty: 10, rate: 1500}},
			2: {{qty: 5, rate: 800}, {qty: 5, rate: 900}},
		}},
		wallet: &fakeWallet{balances: make(map[wallet.Account]int64)},
		catalog: &fakeCatalog{products: map[int64]catalog.Product{
			1: {ID: 1, Name: "Basmati Rice 1kg", BasePrice: 2000, GSTRateBps: 1000, IsActive: true},
			2: {ID: 2, Name: "Cooking Oil 1L", BasePrice: 1200, GSTRateBps: 1700, IsActive: true},
			3: {ID: 3, Name: "Flour 5kg", BasePrice: 900, TaxExempt: true, IsActive: true},
			4: {ID: 4, Name: "Discontinued", BasePrice: 100, IsActive: false},
		}},
		idem:    &fakeIdem{keys: make(map[string]bool)},
		reports: &fakeReports{},
	}
	f.svc = NewService(f.repo, f.catalog, f.stock, f.wallet, nil, f.idem, nil, f.reports, nil)
	return f
}

func TestFinalizeSaleComputesTotals(t *testing.T) {
	f := newPOSFixture()

	// 2 × 2000 @ 10% → subtotal 4000, tax 400, grand 4400, cogs 2×1500.
	sale, err := f.svc.FinalizeSale(context.Background(), SaleInput{
		Lines:         []LineInput{{ProductID: 1, Qty: 2}},
		PaymentMethod: PayCash,
	})
	require.NoError(t, err)
	require.Equal(t, int64(4000), sale.Subtotal)
	require.Equal(t, int64(400), sale.TaxTotal)
	require.Equal(t, int64(4400), sale.GrandTotal)
	require.Equal(t, int64(3000), sale.CostOfGoods)
	require.Equal(t, sale.GrandTotal-sale.TaxTotal-sale.CostOfGoods, sale.Profit)
	require.Equal(t, FBRPending, sale.FBRStatus)
	require.NotEmpty(t, sale.Number)

	require.Equal(t, int64(4400), f.wallet.balances[wallet.AccountCash])
	require.Equal(t, int64(8), f.stock.remaining(1))
	require.Equal(t, 1, f.reports.bumps)
}

func TestFinalizeSaleCrossesLotBoundary(t *testing.T) {
	f := newPOSFixture()

	sale, err := f.svc.FinalizeSale(context.Background(), SaleInput{
		Lines:         []LineInput{{ProductID: 2, Qty: 7}},
		PaymentMethod: PayCard,
	})
	require.NoError(t, err)
	// 5@800 + 2@900 = 5800 cost of goods.
	require.Equal(t, int64(5800), sale.CostOfGoods)
	require.Equal(t, int64(3), f.stock.remaining(2))
}

func TestFinalizeSaleExemptLineCarriesNoTax(t *testing.T) {
	f := newPOSFixture()
	f.stock.lots[3] = []stockLot{{qty: 4, rate: 700}}

	sale, err := f.svc.FinalizeSale(context.Background(), SaleInput{
		Lines:         []LineInput{{ProductID: 3, Qty: 3}},
		PaymentMethod: PayCash,
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), sale.TaxTotal)
	require.Equal(t, sale.Subtotal, sale.GrandTotal)
}

func TestFinalizeSaleValidation(t *testing.T) {
	f := newPOSFixture()
	ctx := context.Background()

	_, err := f.svc.FinalizeSale(ctx, SaleInput{PaymentMethod: PayCash})
	require.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.svc.FinalizeSale(ctx, SaleInput{
		Lines:         []LineInput{{ProductID: 1, Qty: 0}},
		PaymentMethod: PayCash,
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.svc.FinalizeSale(ctx, SaleInput{
		Lines:         []LineInput{{ProductID: 1, Qty: 1}},
		PaymentMethod: PaymentMethod("bitcoin"),
	})
	require.ErrorIs(t, err, ErrUnknownPaymentMethod)

	_, err = f.svc.FinalizeSale(ctx, SaleInput{
		Lines:         []LineInput{{ProductID: 4, Qty: 1}},
		PaymentMethod: PayCash,
	})
	require.ErrorIs(t, err, ErrProductInactive)
}

func TestFinalizeSaleInsufficientStockChangesNothing(t *testing.T) {
	f := newPOSFixture()

	_, err := f.svc.FinalizeSale(context.Background(), SaleInput{
		Lines: []LineInput{
			{ProductID: 1, Qty: 2},
			{ProductID: 2, Qty: 100},
		},
		PaymentMethod: PayCash,
	})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	require.Equal(t, int64(10), f.stock.remaining(1))
	require.Equal(t, int64(10), f.stock.remaining(2))
	require.Zero(t, f.wallet.balances[wallet.AccountCash])
	require.Empty(t, f.repo.sales)
}

func TestFinalizeSaleWalletFailureRestocks(t *testing.T) {
	f := newPOSFixture()
	f.wallet.failCredit = true

	_, err := f.svc.FinalizeSale(context.Background(), SaleInput{
		Lines:         []LineInput{{ProductID: 1, Qty: 2}},
		PaymentMethod: PayCash,
	})
	require.ErrorIs(t, err, ErrSaleFinalizationFailed)
	require.Equal(t, int64(10), f.stock.remaining(1))
	require.Empty(t, f.repo.sales)
}

func TestFinalizeSalePersistFailureCompensatesEverything(t *testing.T) {
	f := newPOSFixture()
	f.repo.failCreate = true

	_, err := f.svc.FinalizeSale(context.Background(), SaleInput{
		Lines:         []LineInput{{ProductID: 1, Qty: 2}},
		PaymentMethod: PayBank,
	})
	require.ErrorIs(t, err, ErrSaleFinalizationFailed)
	require.Equal(t, int64(10), f.stock.remaining(1))
	require.Zero(t, f.wallet.balances[wallet.AccountBank])
	require.Equal(t, 0, f.reports.bumps)
}

func TestFinalizeSaleIdempotency(t *testing.T) {
	f := newPOSFixture()
	ctx := context.Background()

	input := SaleInput{
		Lines:          []LineInput{{ProductID: 1, Qty: 1}},
		PaymentMethod:  PayCash,
		IdempotencyKey: "req-1",
	}
	_, err := f.svc.FinalizeSale(ctx, input)
	require.NoError(t, err)
	_, err = f.svc.FinalizeSale(ctx, input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
}

func TestFinalizeSaleIdempotencyKeyReleasedOnFailure(t *testing.T) {
	f := newPOSFixture()
	f.wallet.failCredit = true
	ctx := context.Background()

	input := SaleInput{
		Lines:          []LineInput{{ProductID: 1, Qty: 1}},
		PaymentMethod:  PayCash,
		IdempotencyKey: "req-2",
	}
	_, err := f.svc.FinalizeSale(ctx, input)
	require.ErrorIs(t, err, ErrSaleFinalizationFailed)

	f.wallet.failCredit = false
	sale, err := f.svc.FinalizeSale(ctx, input)
	require.NoError(t, err)
	require.NotZero(t, sale.ID)
}

func TestUpdateFBRStatus(t *testing.T) {
	f := newPOSFixture()
	ctx := context.Background()

	sale, err := f.svc.FinalizeSale(ctx, SaleInput{
		Lines:         []LineInput{{ProductID: 1, Qty: 1}},
		PaymentMethod: PayCash,
	})
	require.NoError(t, err)

	require.Error(t, f.svc.UpdateFBRStatus(ctx, sale.ID, FBRStatus("queued"), ""))
	require.NoError(t, f.svc.UpdateFBRStatus(ctx, sale.ID, FBRSuccess, "FBR-001"))

	got, err := f.svc.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	require.Equal(t, FBRSuccess, got.FBRStatus)
	require.Equal(t, "FBR-001", got.FBRInvoiceNumber)
	require.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}
