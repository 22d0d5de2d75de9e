package models

import "time"

// InventoryRecord tracks available/reserved counts per SKU. AvailableQty never
// includes quantity already reserved; Version increments on every write.
type InventoryRecord struct {
	SKU          string    `gorm:"column:sku;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	ReservedQty  int       `gorm:"column:reserved_qty;not null;default:0"`
	Version      int64     `gorm:"column:version;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
