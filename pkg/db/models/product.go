package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog entry for one purchasable variant. The cart snapshots
// its price at add time; availability lives in InventoryRecord.
type Product struct {
	SKU       string          `gorm:"column:sku;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Active    bool            `gorm:"column:active;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
