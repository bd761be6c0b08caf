package models

import (
	"time"

	"github.com/google/uuid"
)

// Bundle is a time-boxed collection of orders. While open, groups may change
// their ordered amounts; after closing only delivered quantities are written.
type Bundle struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Start     time.Time `gorm:"column:start;autoCreateTime" json:"start"`
	Open      bool      `gorm:"column:open;not null;default:true" json:"open"`
	Orders    []Order   `gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE" json:"orders,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
