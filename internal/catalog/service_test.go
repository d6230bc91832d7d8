package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryCatalogRepo struct {
	products  map[int64]Product
	suppliers map[int64]Supplier
	nextID    int64
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{products: make(map[int64]Product), suppliers: make(map[int64]Supplier)}
}

func (r *memoryCatalogRepo) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	for _, existing := range r.products {
		if existing.SKU == input.SKU {
			return Product{}, ErrDuplicateSKU
		}
	}
	r.nextID++
	p := Product{
		ID:                r.nextID,
		Name:              input.Name,
		SKU:               input.SKU,
		BasePrice:         input.BasePrice,
		GSTRateBps:        input.GSTRateBps,
		TaxExempt:         input.TaxExempt,
		LowStockThreshold: input.LowStockThreshold,
		WeightValue:       input.WeightValue,
		WeightUnit:        input.WeightUnit,
		SupplierID:        input.SupplierID,
		IsActive:          true,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryCatalogRepo) UpdateProduct(ctx context.Context, id int64, input ProductInput) (Product, error) {
	p := r.products[id]
	p.Name = input.Name
	p.SKU = input.SKU
	p.BasePrice = input.BasePrice
	p.GSTRateBps = input.GSTRateBps
	p.TaxExempt = input.TaxExempt
	p.LowStockThreshold = input.LowStockThreshold
	p.UpdatedAt = time.Now()
	r.products[id] = p
	return p, nil
}

func (r *memoryCatalogRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	return r.products[id], nil
}

func (r *memoryCatalogRepo) ListProducts(ctx context.Context, filter ListFilter) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryCatalogRepo) CreateSupplier(ctx context.Context, input SupplierInput) (Supplier, error) {
	r.nextID++
	s := Supplier{ID: r.nextID, Name: input.Name, Contact: input.Contact, Phone: input.Phone, Email: input.Email, Address: input.Address, IsActive: true}
	r.suppliers[s.ID] = s
	return s, nil
}

func (r *memoryCatalogRepo) ListSuppliers(ctx context.Context, activeOnly bool) ([]Supplier, error) {
	var out []Supplier
	for _, s := range r.suppliers {
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memoryCatalogRepo) DeactivateSupplier(ctx context.Context, id int64) error {
	s := r.suppliers[id]
	s.IsActive = false
	r.suppliers[id] = s
	return nil
}

func TestCreateProductDefaultsGSTRate(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{Name: "Basmati Rice 5kg", SKU: "RICE-5", BasePrice: 125000})
	require.NoError(t, err)
	require.Equal(t, int64(1700), p.GSTRateBps)

	exempt, err := svc.CreateProduct(ctx, ProductInput{Name: "Fresh Milk 1L", SKU: "MILK-1", BasePrice: 22000, TaxExempt: true})
	require.NoError(t, err)
	require.Zero(t, exempt.GSTRateBps)
}

func TestCreateProductValidation(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductInput{SKU: "X"})
	require.Error(t, err)

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Salt", SKU: "SALT-1", BasePrice: -5})
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Salt", SKU: "SALT-1", GSTRateBps: -1})
	require.ErrorIs(t, err, ErrInvalidRate)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductInput{Name: "Sugar 1kg", SKU: "SUG-1", BasePrice: 15000})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Sugar 1kg copy", SKU: "SUG-1", BasePrice: 15000})
	require.ErrorIs(t, err, ErrDuplicateSKU)
}
