package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aaryaclothing/commerce-core/pkg/enums"
)

// Reservation groups the stock claims of one checkout attempt. A held
// reservation past ExpiresAt is reclaimable by the sweep.
type Reservation struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID   string                 `gorm:"column:owner_id;not null;index"`
	OrderID   *uuid.UUID             `gorm:"column:order_id;type:uuid;index"`
	State     enums.ReservationState `gorm:"column:state;not null;default:'held';index"`
	ExpiresAt time.Time              `gorm:"column:expires_at;not null;index"`
	Lines     []ReservationLine      `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// ReservationLine records one reserved SKU and the ledger claim backing it.
// The quantity is tracked redundantly with the claim for audit.
type ReservationLine struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ReservationID uuid.UUID `gorm:"column:reservation_id;type:uuid;not null;index"`
	SKU           string    `gorm:"column:sku;not null;index"`
	Qty           int       `gorm:"column:qty;not null"`
	ClaimID       uuid.UUID `gorm:"column:claim_id;type:uuid;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
