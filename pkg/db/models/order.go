package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aaryaclothing/commerce-core/pkg/enums"
)

// Order is the durable record of one checkout attempt. Lines are immutable
// once created; status transitions follow the orchestrator state machine.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID       string            `gorm:"column:owner_id;not null;index"`
	ReservationID *uuid.UUID        `gorm:"column:reservation_id;type:uuid;index"`
	Status        enums.OrderStatus `gorm:"column:status;not null;default:'pending_payment';index"`
	Subtotal      decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Currency      enums.Currency    `gorm:"column:currency;not null;default:'INR'"`
	FailureReason *string           `gorm:"column:failure_reason"`
	Lines         []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLine snapshots one purchased SKU at order time, independent of later
// cart or price changes.
type OrderLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	SKU       string          `gorm:"column:sku;not null"`
	Qty       int             `gorm:"column:qty;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
