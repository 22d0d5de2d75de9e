package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aaryaclothing/commerce-core/pkg/db"
	"github.com/aaryaclothing/commerce-core/pkg/db/models"
	"github.com/aaryaclothing/commerce-core/pkg/enums"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.InventoryRecord{}, &models.StockClaim{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), db.FromGorm(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedStock(t *testing.T, conn *gorm.DB, sku string, qty int) {
	t.Helper()
	if err := conn.Create(&models.InventoryRecord{SKU: sku, AvailableQty: qty}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func loadRecord(t *testing.T, conn *gorm.DB, sku string) models.InventoryRecord {
	t.Helper()
	var record models.InventoryRecord
	if err := conn.First(&record, "sku = ?", sku).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	return record
}

func TestTryReserveMovesStockToReserved(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)

	claim, err := svc.TryReserve(ctx, "TEE-BLK-M", 3)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if claim.State != enums.ClaimStateHeld {
		t.Fatalf("expected held claim, got %s", claim.State)
	}

	record := loadRecord(t, conn, "TEE-BLK-M")
	if record.AvailableQty != 2 || record.ReservedQty != 3 {
		t.Fatalf("unexpected stock state: %+v", record)
	}
}

func TestTryReserveInsufficientStock(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 2)

	_, err := svc.TryReserve(ctx, "TEE-BLK-M", 3)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	record := loadRecord(t, conn, "TEE-BLK-M")
	if record.AvailableQty != 2 || record.ReservedQty != 0 {
		t.Fatalf("failed reserve must not touch stock: %+v", record)
	}
}

func TestTryReserveUnknownSKU(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.TryReserve(context.Background(), "NOPE", 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSequentialReservesNeverOversell(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)

	succeeded := 0
	for i := 0; i < 10; i++ {
		if _, err := svc.TryReserve(ctx, "TEE-BLK-M", 1); err == nil {
			succeeded++
		} else if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 5 {
		t.Fatalf("expected exactly 5 successful reserves, got %d", succeeded)
	}

	record := loadRecord(t, conn, "TEE-BLK-M")
	if record.AvailableQty != 0 || record.ReservedQty != 5 {
		t.Fatalf("unexpected stock state: %+v", record)
	}
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)

	const attempts = 10
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.TryReserve(ctx, "TEE-BLK-M", 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 5 {
		t.Fatalf("expected exactly 5 successful reserves, got %d", succeeded)
	}

	record := loadRecord(t, conn, "TEE-BLK-M")
	if record.AvailableQty != 0 || record.ReservedQty != 5 {
		t.Fatalf("unexpected stock state: %+v", record)
	}
}

func TestCommitIsIdempotent(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)

	claim, err := svc.TryReserve(ctx, "TEE-BLK-M", 2)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := svc.Commit(ctx, claim.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := svc.Commit(ctx, claim.ID); err != nil {
		t.Fatalf("second commit must be a no-op: %v", err)
	}

	record := loadRecord(t, conn, "TEE-BLK-M")
	if record.AvailableQty != 3 || record.ReservedQty != 0 {
		t.Fatalf("commit applied more than once: %+v", record)
	}
}

func TestReleaseReturnsStockOnce(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)

	claim, err := svc.TryReserve(ctx, "TEE-BLK-M", 2)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := svc.Release(ctx, claim.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := svc.Release(ctx, claim.ID); err != nil {
		t.Fatalf("second release must be a no-op: %v", err)
	}

	record := loadRecord(t, conn, "TEE-BLK-M")
	if record.AvailableQty != 5 || record.ReservedQty != 0 {
		t.Fatalf("release applied more than once: %+v", record)
	}
}

func TestReleaseAfterCommitIsStateConflict(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)

	claim, err := svc.TryReserve(ctx, "TEE-BLK-M", 2)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := svc.Commit(ctx, claim.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}

	err = svc.Release(ctx, claim.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRestockCreatesAndAccumulates(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	record, err := svc.Restock(ctx, "NEW-SKU", 4)
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if record.AvailableQty != 4 {
		t.Fatalf("expected 4 available, got %d", record.AvailableQty)
	}

	record, err = svc.Restock(ctx, "NEW-SKU", 6)
	if err != nil {
		t.Fatalf("second restock: %v", err)
	}
	if record.AvailableQty != 10 {
		t.Fatalf("expected 10 available, got %d", record.AvailableQty)
	}
}

func TestGetAvailabilityMissingSKUIsZero(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)

	available, err := svc.GetAvailability(context.Background(), "MISSING")
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if available != 0 {
		t.Fatalf("expected 0, got %d", available)
	}
}
