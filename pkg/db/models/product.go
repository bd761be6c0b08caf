package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a purchasable item priced per unit. Price is nullable: a product
// may be listed before its price is known, in which case it contributes
// nothing to cost sums and is surfaced through the unknown-price checks.
type Product struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string           `gorm:"column:name;not null;uniqueIndex" json:"name"`
	UnitID    uuid.UUID        `gorm:"column:unit_id;type:uuid;not null" json:"unit_id"`
	Unit      *Unit            `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	Price     *decimal.Decimal `gorm:"column:price;type:numeric(10,2)" json:"price"`
	Available bool             `gorm:"column:available;not null;default:true" json:"available"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Multiplier is the currency amount charged per one order unit: price divided
// by the unit's divisor, or zero when the price is unknown. The Unit relation
// must be loaded; callers obtain products through repositories that preload it.
func (p Product) Multiplier() decimal.Decimal {
	if p.Price == nil {
		return decimal.Zero
	}
	divisor := int64(1)
	if p.Unit != nil && p.Unit.Divisor > 0 {
		divisor = p.Unit.Divisor
	}
	return p.Price.Div(decimal.NewFromInt(divisor))
}

// HasPrice reports whether a price has been recorded for the product.
func (p Product) HasPrice() bool {
	return p.Price != nil
}
