package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWeighingLimit caps weighing listings when the caller does not.
const DefaultWeighingLimit = 100

// WeighingFilter narrows weighing listings and statistics. Zero values match
// everything; Plate matches any plate containing it.
type WeighingFilter struct {
	Date    *time.Time
	Plate   string
	Process string
	Limit   int
}

// WeighingStats summarises the weights matched by a filter.
type WeighingStats struct {
	Count   int64           `json:"count"`
	Total   decimal.Decimal `json:"total"`
	Average decimal.Decimal `json:"average"`
	Min     decimal.Decimal `json:"min" gorm:"column:minimum"`
	Max     decimal.Decimal `json:"max" gorm:"column:maximum"`
}
