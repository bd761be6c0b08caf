package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is an ordering party. Only groups that have paid their enclosure
// deposit may place orders; the flag is checked on the order write path.
type Group struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Enclosure bool      `gorm:"column:enclosure;not null;default:false" json:"enclosure"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
