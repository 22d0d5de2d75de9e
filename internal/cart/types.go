package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line is one SKU entry in a cart. UnitPrice is snapshotted at add time.
type Line struct {
	SKU       string          `json:"sku"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	AddedAt   time.Time       `json:"added_at"`
}

// Cart is the mutable, advisory line collection for one owner. Version
// increments on every save so concurrent readers can detect staleness.
type Cart struct {
	OwnerID        string    `json:"owner_id"`
	Lines          []Line    `json:"lines"`
	Version        int64     `json:"version"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// Subtotal sums line price times quantity across the cart.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, line := range c.Lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return total
}

func (c *Cart) lineIndex(sku string) int {
	for i, line := range c.Lines {
		if line.SKU == sku {
			return i
		}
	}
	return -1
}

// StockWarning flags an advisory shortfall noticed at add time. It never
// blocks the mutation; reservation at checkout is the enforcement point.
type StockWarning struct {
	SKU       string `json:"sku"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}
