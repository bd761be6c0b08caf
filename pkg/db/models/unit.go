package models

import (
	"time"

	"github.com/google/uuid"
)

// Unit is a measurement unit for products. Prices are quoted per unit while
// orders are placed in a possibly smaller unit; Divisor converts between the
// two (price per kilogram, order in grams: divisor 1000).
type Unit struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	OrderName string    `gorm:"column:order_name;not null;default:''" json:"order_name"`
	Divisor   int64     `gorm:"column:divisor;not null;default:1" json:"divisor"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// PriceUnitName is the display name attached to a price.
func (u Unit) PriceUnitName() string {
	return u.Name
}

// OrderUnitName is the display name attached to an order quantity. It falls
// back to the price unit name when no separate order name is configured.
func (u Unit) OrderUnitName() string {
	if u.OrderName != "" {
		return u.OrderName
	}
	return u.Name
}
