package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aaryaclothing/commerce-core/pkg/enums"
)

// StockClaim is the durable token returned by a successful reserve. Commit and
// release are guarded by its state so replays are no-ops.
type StockClaim struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SKU       string           `gorm:"column:sku;not null;index"`
	Qty       int              `gorm:"column:qty;not null"`
	State     enums.ClaimState `gorm:"column:state;not null;default:'held'"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
