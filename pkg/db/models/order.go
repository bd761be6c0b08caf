package models

import (
	"time"

	"github.com/google/uuid"
)

// Order records one group's quantity of one product within one bundle.
// Amount is what the group asked for; Delivered is what actually arrived and
// stays null until the output phase writes it. Rows are created lazily on the
// first write for a (group, product, bundle) triple.
type Order struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	GroupID   uuid.UUID `gorm:"column:group_id;type:uuid;not null;uniqueIndex:idx_orders_group_product_bundle" json:"group_id"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_orders_group_product_bundle" json:"product_id"`
	BundleID  uuid.UUID `gorm:"column:bundle_id;type:uuid;not null;uniqueIndex:idx_orders_group_product_bundle" json:"bundle_id"`
	Amount    int64     `gorm:"column:amount;not null;default:0" json:"amount"`
	Delivered *int64    `gorm:"column:delivered" json:"delivered"`
	Group     *Group    `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// EffectiveDelivered is the delivered quantity when one was recorded, else the
// ordered amount.
func (o Order) EffectiveDelivered() int64 {
	if o.Delivered != nil {
		return *o.Delivered
	}
	return o.Amount
}
