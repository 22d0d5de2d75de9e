package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aaryaclothing/commerce-core/pkg/db/models"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
)

type stubAvailability struct {
	hints map[string]int
}

func (s *stubAvailability) GetAvailability(ctx context.Context, sku string) (int, error) {
	return s.hints[sku], nil
}

func newTestCatalog(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(conn), &stubAvailability{hints: map[string]int{"TEE-BLK-M": 4}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func TestPriceAndStockHint(t *testing.T) {
	svc, conn := newTestCatalog(t)
	ctx := context.Background()

	if err := conn.Create(&models.Product{
		SKU:    "TEE-BLK-M",
		Name:   "Black Tee M",
		Price:  decimal.NewFromInt(499),
		Active: true,
	}).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	quote, err := svc.PriceAndStockHint(ctx, "TEE-BLK-M")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !quote.UnitPrice.Equal(decimal.NewFromInt(499)) {
		t.Fatalf("unexpected price %s", quote.UnitPrice)
	}
	if quote.StockHint != 4 {
		t.Fatalf("unexpected hint %d", quote.StockHint)
	}
}

func TestPriceQuoteUnknownSKU(t *testing.T) {
	svc, _ := newTestCatalog(t)

	_, err := svc.PriceAndStockHint(context.Background(), "NOPE")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInactiveProductIsNotQuotable(t *testing.T) {
	svc, conn := newTestCatalog(t)
	ctx := context.Background()

	if err := conn.Create(&models.Product{
		SKU:    "OLD-SKU",
		Name:   "Discontinued",
		Price:  decimal.NewFromInt(100),
		Active: false,
	}).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	_, err := svc.PriceAndStockHint(ctx, "OLD-SKU")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpsertProduct(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	product, err := svc.UpsertProduct(ctx, ProductInput{
		SKU:    "NEW-SKU",
		Name:   "New Thing",
		Price:  decimal.NewFromInt(250),
		Active: true,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if product.SKU != "NEW-SKU" {
		t.Fatalf("unexpected sku %q", product.SKU)
	}

	// Replacing the entry keeps the same key.
	updated, err := svc.UpsertProduct(ctx, ProductInput{
		SKU:    "NEW-SKU",
		Name:   "New Thing v2",
		Price:  decimal.NewFromInt(300),
		Active: true,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if updated.Name != "New Thing v2" {
		t.Fatalf("unexpected name %q", updated.Name)
	}
}

func TestUpsertInactiveProductPersistsFalse(t *testing.T) {
	svc, conn := newTestCatalog(t)
	ctx := context.Background()

	if _, err := svc.UpsertProduct(ctx, ProductInput{
		SKU:    "DISC-SKU",
		Name:   "Discontinued",
		Price:  decimal.NewFromInt(100),
		Active: false,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var stored models.Product
	if err := conn.Where("sku = ?", "DISC-SKU").First(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Active {
		t.Fatal("inactive product stored as active")
	}

	if _, err := svc.PriceAndStockHint(ctx, "DISC-SKU"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpsertProductValidation(t *testing.T) {
	svc, _ := newTestCatalog(t)

	_, err := svc.UpsertProduct(context.Background(), ProductInput{Name: "No SKU"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
