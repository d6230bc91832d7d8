package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
	"github.com/haiderali7066/Grocery-store-ERP/internal/tax"
)

// Repository abstracts persistence for catalog master data.
type Repository interface {
	CreateProduct(ctx context.Context, input ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) (Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context, filter ListFilter) ([]Product, error)
	CreateSupplier(ctx context.Context, input SupplierInput) (Supplier, error)
	ListSuppliers(ctx context.Context, activeOnly bool) ([]Supplier, error)
	DeactivateSupplier(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates catalog operations.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateProduct registers a new sellable product. A zero GST rate on input
// falls back to the default rate unless the product is tax exempt.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	if err := validateProduct(input); err != nil {
		return Product{}, err
	}
	if input.GSTRateBps == 0 && !input.TaxExempt {
		input.GSTRateBps = tax.DefaultRateBps
	}
	product, err := s.repo.CreateProduct(ctx, input)
	if err != nil {
		return Product{}, err
	}
	s.recordAudit(ctx, "catalog:create", product)
	return product, nil
}

// UpdateProduct replaces the mutable master-data fields of a product.
func (s *Service) UpdateProduct(ctx context.Context, id int64, input ProductInput) (Product, error) {
	if err := validateProduct(input); err != nil {
		return Product{}, err
	}
	product, err := s.repo.UpdateProduct(ctx, id, input)
	if err != nil {
		return Product{}, err
	}
	s.recordAudit(ctx, "catalog:update", product)
	return product, nil
}

// GetProduct loads a single product.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts lists products for the storefront and POS search.
func (s *Service) ListProducts(ctx context.Context, filter ListFilter) ([]Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.ListProducts(ctx, filter)
}

// CreateSupplier registers a supplier.
func (s *Service) CreateSupplier(ctx context.Context, input SupplierInput) (Supplier, error) {
	if input.Name == "" {
		return Supplier{}, errors.New("catalog: supplier name required")
	}
	return s.repo.CreateSupplier(ctx, input)
}

// ListSuppliers lists suppliers.
func (s *Service) ListSuppliers(ctx context.Context, activeOnly bool) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx, activeOnly)
}

// DeactivateSupplier soft deletes a supplier so purchase history keeps its
// reference.
func (s *Service) DeactivateSupplier(ctx context.Context, id int64) error {
	return s.repo.DeactivateSupplier(ctx, id)
}

func validateProduct(input ProductInput) error {
	if input.Name == "" || input.SKU == "" {
		return errors.New("catalog: name and sku required")
	}
	if input.BasePrice < 0 {
		return ErrInvalidPrice
	}
	if input.GSTRateBps < 0 {
		return ErrInvalidRate
	}
	if input.LowStockThreshold < 0 {
		return errors.New("catalog: low stock threshold must be >= 0")
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, product Product) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "product",
		EntityID: fmt.Sprintf("%d", product.ID),
		Meta: map[string]any{
			"sku":        product.SKU,
			"base_price": product.BasePrice,
		},
	})
}
