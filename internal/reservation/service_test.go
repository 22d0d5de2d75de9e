package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aaryaclothing/commerce-core/internal/inventory"
	"github.com/aaryaclothing/commerce-core/pkg/config"
	"github.com/aaryaclothing/commerce-core/pkg/db"
	"github.com/aaryaclothing/commerce-core/pkg/db/models"
	"github.com/aaryaclothing/commerce-core/pkg/enums"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reservation_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.InventoryRecord{},
		&models.StockClaim{},
		&models.Reservation{},
		&models.ReservationLine{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	ledger, err := inventory.NewService(inventory.NewRepository(conn), db.FromGorm(conn))
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	cfg := config.CheckoutConfig{ReservationTTL: 15 * time.Minute}
	svc, err := NewService(NewRepository(conn), ledger, cfg, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("reservation service: %v", err)
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

func TestReserveForCheckoutHoldsAllLines(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)
	seedStock(t, conn, "JEAN-32", 3)

	held, err := svc.ReserveForCheckout(ctx, "owner-1", []LineRequest{
		{SKU: "JEAN-32", Qty: 1},
		{SKU: "TEE-BLK-M", Qty: 2},
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if held.State != enums.ReservationStateHeld {
		t.Fatalf("expected held reservation, got %s", held.State)
	}
	if len(held.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(held.Lines))
	}

	tee := loadRecord(t, conn, "TEE-BLK-M")
	if tee.AvailableQty != 3 || tee.ReservedQty != 2 {
		t.Fatalf("unexpected tee stock: %+v", tee)
	}
	jean := loadRecord(t, conn, "JEAN-32")
	if jean.AvailableQty != 2 || jean.ReservedQty != 1 {
		t.Fatalf("unexpected jean stock: %+v", jean)
	}
}

func TestReserveForCheckoutIsAllOrNothing(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)
	seedStock(t, conn, "JEAN-32", 1)

	_, err := svc.ReserveForCheckout(ctx, "owner-1", []LineRequest{
		{SKU: "TEE-BLK-M", Qty: 2},
		{SKU: "JEAN-32", Qty: 3},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// The acquired tee hold must have been compensated back.
	tee := loadRecord(t, conn, "TEE-BLK-M")
	if tee.AvailableQty != 5 || tee.ReservedQty != 0 {
		t.Fatalf("compensation did not restore tee stock: %+v", tee)
	}
	jean := loadRecord(t, conn, "JEAN-32")
	if jean.AvailableQty != 1 || jean.ReservedQty != 0 {
		t.Fatalf("jean stock must be untouched: %+v", jean)
	}
}

func TestReserveReportsEveryShortSKU(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "A-SKU", 0)
	seedStock(t, conn, "B-SKU", 0)

	_, err := svc.ReserveForCheckout(ctx, "owner-1", []LineRequest{
		{SKU: "A-SKU", Qty: 1},
		{SKU: "B-SKU", Qty: 1},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	skus, ok := details["skus"].([]string)
	if !ok || len(skus) != 2 {
		t.Fatalf("expected both short skus reported, got %v", details["skus"])
	}
}

func TestCommitSettlesEveryClaim(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)

	held, err := svc.ReserveForCheckout(ctx, "owner-1", []LineRequest{{SKU: "TEE-BLK-M", Qty: 2}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := svc.Commit(ctx, held.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := svc.Commit(ctx, held.ID); err != nil {
		t.Fatalf("second commit must be a no-op: %v", err)
	}

	record := loadRecord(t, conn, "TEE-BLK-M")
	if record.AvailableQty != 3 || record.ReservedQty != 0 {
		t.Fatalf("commit applied more than once: %+v", record)
	}

	committed, err := svc.Get(ctx, held.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if committed.State != enums.ReservationStateCommitted {
		t.Fatalf("expected committed, got %s", committed.State)
	}
}

func TestReleaseReturnsHeldStock(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)

	held, err := svc.ReserveForCheckout(ctx, "owner-1", []LineRequest{{SKU: "TEE-BLK-M", Qty: 2}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := svc.Release(ctx, held.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := svc.Release(ctx, held.ID); err != nil {
		t.Fatalf("second release must be a no-op: %v", err)
	}

	record := loadRecord(t, conn, "TEE-BLK-M")
	if record.AvailableQty != 5 || record.ReservedQty != 0 {
		t.Fatalf("release applied more than once: %+v", record)
	}
}

func TestReleaseFreesRemainingClaimsAfterPartialCommit(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "JEAN-32", 4)
	seedStock(t, conn, "TEE-BLK-M", 5)

	held, err := svc.ReserveForCheckout(ctx, "owner-1", []LineRequest{
		{SKU: "JEAN-32", Qty: 1},
		{SKU: "TEE-BLK-M", Qty: 2},
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// A committer that died after settling the first claim leaves the
	// reservation held with one claim already committed.
	ledger, err := inventory.NewService(inventory.NewRepository(conn), db.FromGorm(conn))
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	if err := ledger.Commit(ctx, held.Lines[0].ClaimID); err != nil {
		t.Fatalf("commit first claim: %v", err)
	}

	if err := svc.Release(ctx, held.ID); err != nil {
		t.Fatalf("release: %v", err)
	}

	// The untouched claim's stock must come back despite the committed one.
	tee := loadRecord(t, conn, "TEE-BLK-M")
	if tee.AvailableQty != 5 || tee.ReservedQty != 0 {
		t.Fatalf("held claim not freed: %+v", tee)
	}

	released, err := svc.Get(ctx, held.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if released.State != enums.ReservationStateReleased {
		t.Fatalf("expected released, got %s", released.State)
	}
}

func TestCommitReleasedReservationFails(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)

	held, err := svc.ReserveForCheckout(ctx, "owner-1", []LineRequest{{SKU: "TEE-BLK-M", Qty: 2}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := svc.Release(ctx, held.ID); err != nil {
		t.Fatalf("release: %v", err)
	}

	err = svc.Commit(ctx, held.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestExpireStaleReclaimsStock(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)

	held, err := svc.ReserveForCheckout(ctx, "owner-1", []LineRequest{{SKU: "TEE-BLK-M", Qty: 5}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// Backdate the deadline so the sweep sees it as stale.
	if err := conn.Model(&models.Reservation{}).
		Where("id = ?", held.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	count, err := svc.ExpireStale(ctx)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reclaimed reservation, got %d", count)
	}

	record := loadRecord(t, conn, "TEE-BLK-M")
	if record.AvailableQty != 5 || record.ReservedQty != 0 {
		t.Fatalf("stock not reclaimed: %+v", record)
	}
}

func TestReserveReclaimsExpiredHoldsLazily(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)

	stale, err := svc.ReserveForCheckout(ctx, "owner-1", []LineRequest{{SKU: "TEE-BLK-M", Qty: 5}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := conn.Model(&models.Reservation{}).
		Where("id = ?", stale.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	// The sweep has not run, but a new checkout can still reclaim the
	// expired hold and take the stock.
	fresh, err := svc.ReserveForCheckout(ctx, "owner-2", []LineRequest{{SKU: "TEE-BLK-M", Qty: 3}})
	if err != nil {
		t.Fatalf("reserve after expiry: %v", err)
	}
	if fresh.State != enums.ReservationStateHeld {
		t.Fatalf("expected held, got %s", fresh.State)
	}

	record := loadRecord(t, conn, "TEE-BLK-M")
	if record.AvailableQty != 2 || record.ReservedQty != 3 {
		t.Fatalf("unexpected stock after lazy reclaim: %+v", record)
	}
}

func TestAttachOrderLinksReservation(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedStock(t, conn, "TEE-BLK-M", 5)

	held, err := svc.ReserveForCheckout(ctx, "owner-1", []LineRequest{{SKU: "TEE-BLK-M", Qty: 1}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	orderID := uuid.New()
	if err := svc.AttachOrder(ctx, held.ID, orderID); err != nil {
		t.Fatalf("attach: %v", err)
	}

	linked, err := svc.Get(ctx, held.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if linked.OrderID == nil || *linked.OrderID != orderID {
		t.Fatalf("order not attached: %+v", linked.OrderID)
	}
}
