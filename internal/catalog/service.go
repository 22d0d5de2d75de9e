package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aaryaclothing/commerce-core/pkg/db/models"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
)

type availabilityReader interface {
	GetAvailability(ctx context.Context, sku string) (int, error)
}

// PriceQuote is the advisory price/stock answer the cart consumes. The stock
// hint is never authoritative for reservation decisions.
type PriceQuote struct {
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	StockHint int
}

// Service answers advisory pricing and stock-hint queries and lets admin
// callers maintain catalog entries.
type Service interface {
	PriceAndStockHint(ctx context.Context, sku string) (*PriceQuote, error)
	UpsertProduct(ctx context.Context, input ProductInput) (*models.Product, error)
}

// ProductInput carries a catalog entry write.
type ProductInput struct {
	SKU    string
	Name   string
	Price  decimal.Decimal
	Active bool
}

type service struct {
	repo      Repository
	inventory availabilityReader
}

// NewService builds a catalog service over the product repository and the
// inventory ledger's read surface.
func NewService(repo Repository, inventory availabilityReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory reader required")
	}
	return &service{repo: repo, inventory: inventory}, nil
}

func (s *service) PriceAndStockHint(ctx context.Context, sku string) (*PriceQuote, error) {
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	product, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"sku": sku})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
			WithDetails(map[string]any{"sku": sku})
	}
	hint, err := s.inventory.GetAvailability(ctx, sku)
	if err != nil {
		return nil, err
	}
	return &PriceQuote{
		SKU:       product.SKU,
		Name:      product.Name,
		UnitPrice: product.Price,
		StockHint: hint,
	}, nil
}

func (s *service) UpsertProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if input.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	product := &models.Product{
		SKU:    input.SKU,
		Name:   input.Name,
		Price:  input.Price,
		Active: input.Active,
	}
	if err := s.repo.Upsert(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert product")
	}
	return product, nil
}
