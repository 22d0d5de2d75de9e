package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aaryaclothing/commerce-core/pkg/db/models"
	"github.com/aaryaclothing/commerce-core/pkg/enums"
)

// Repository manages persistence for inventory records and stock claims.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBySKU(ctx context.Context, sku string) (*models.InventoryRecord, error)
	ReserveStock(ctx context.Context, sku string, qty int) (bool, error)
	ReturnReserved(ctx context.Context, sku string, qty int) (bool, error)
	DeductReserved(ctx context.Context, sku string, qty int) (bool, error)
	IncrementAvailable(ctx context.Context, sku string, qty int) error
	CreateClaim(ctx context.Context, claim *models.StockClaim) error
	FindClaim(ctx context.Context, id uuid.UUID) (*models.StockClaim, error)
	TransitionClaim(ctx context.Context, id uuid.UUID, from, to enums.ClaimState) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindBySKU(ctx context.Context, sku string) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ReserveStock moves qty from available to reserved in a single conditional
// update. The WHERE guard makes the check-and-decrement atomic: a concurrent
// caller either sees the row before this write or after it, never in between.
func (r *repository) ReserveStock(ctx context.Context, sku string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.InventoryRecord{}).
		Where("sku = ? AND available_qty >= ?", sku, qty).
		Updates(map[string]any{
			"available_qty": gorm.Expr("available_qty - ?", qty),
			"reserved_qty":  gorm.Expr("reserved_qty + ?", qty),
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReturnReserved moves qty from reserved back to available.
func (r *repository) ReturnReserved(ctx context.Context, sku string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.InventoryRecord{}).
		Where("sku = ? AND reserved_qty >= ?", sku, qty).
		Updates(map[string]any{
			"available_qty": gorm.Expr("available_qty + ?", qty),
			"reserved_qty":  gorm.Expr("reserved_qty - ?", qty),
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeductReserved permanently removes qty from reserved (a completed sale).
func (r *repository) DeductReserved(ctx context.Context, sku string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.InventoryRecord{}).
		Where("sku = ? AND reserved_qty >= ?", sku, qty).
		Updates(map[string]any{
			"reserved_qty": gorm.Expr("reserved_qty - ?", qty),
			"version":      gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IncrementAvailable adds qty to available stock, creating the record when the
// SKU is stocked for the first time.
func (r *repository) IncrementAvailable(ctx context.Context, sku string, qty int) error {
	res := r.db.WithContext(ctx).Model(&models.InventoryRecord{}).
		Where("sku = ?", sku).
		Updates(map[string]any{
			"available_qty": gorm.Expr("available_qty + ?", qty),
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	record := models.InventoryRecord{SKU: sku, AvailableQty: qty}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		// Lost the creation race: another writer inserted the row first.
		retry := r.db.WithContext(ctx).Model(&models.InventoryRecord{}).
			Where("sku = ?", sku).
			Updates(map[string]any{
				"available_qty": gorm.Expr("available_qty + ?", qty),
				"version":       gorm.Expr("version + 1"),
			})
		if retry.Error != nil {
			return err
		}
		if retry.RowsAffected == 0 {
			return err
		}
	}
	return nil
}

func (r *repository) CreateClaim(ctx context.Context, claim *models.StockClaim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *repository) FindClaim(ctx context.Context, id uuid.UUID) (*models.StockClaim, error) {
	var claim models.StockClaim
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&claim).Error; err != nil {
		return nil, err
	}
	return &claim, nil
}

// TransitionClaim flips a claim's state only when it still holds the expected
// one. The guard is what makes commit/release replays no-ops.
func (r *repository) TransitionClaim(ctx context.Context, id uuid.UUID, from, to enums.ClaimState) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.StockClaim{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
