package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Weighing is a weight captured from the scale and registered for a vehicle.
type Weighing struct {
	ID          int64               `gorm:"primaryKey" json:"id"`
	Ticket      uuid.UUID           `gorm:"type:uuid;uniqueIndex;not null" json:"ticket"`
	Plate       string              `gorm:"size:20;index;not null" json:"plate"`
	Weight      decimal.Decimal     `gorm:"type:decimal(12,3);not null" json:"weight"`
	Tare        decimal.NullDecimal `gorm:"type:decimal(12,3)" json:"tare"`
	Net         decimal.NullDecimal `gorm:"type:decimal(12,3)" json:"net"`
	Unit        string              `gorm:"size:10;not null" json:"unit"`
	Process     string              `gorm:"size:50" json:"process"`
	WeighedAt   time.Time           `gorm:"index;not null" json:"weighedAt"`
	Stable      bool                `gorm:"not null" json:"stable"`
	Driver      string              `gorm:"size:100" json:"driver"`
	Origin      string              `gorm:"size:100" json:"origin"`
	Destination string              `gorm:"size:100" json:"destination"`
	RawLine     string              `gorm:"size:128" json:"rawLine"`
	CreatedAt   time.Time           `json:"-"`
}
