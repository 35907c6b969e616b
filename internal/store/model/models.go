// Package model defines the persisted table schemas.
package model

import (
	"gorm.io/datatypes"
)

// TradeModel persists one executed trade. Rows are append-only.
type TradeModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	TradeID       string         `gorm:"column:trade_id;uniqueIndex"`
	Pair          string         `gorm:"column:pair;index"`
	Side          string         `gorm:"column:side"`
	Price         float64        `gorm:"column:price"`
	Quantity      float64        `gorm:"column:quantity"`
	RealizedPnL   *float64       `gorm:"column:realized_pnl"`
	Origin        string         `gorm:"column:origin"`
	ContextJSON   datatypes.JSON `gorm:"column:context_json;type:TEXT"`
	ExecutedAtUTC int64          `gorm:"column:executed_at;index"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
}

func (TradeModel) TableName() string { return "trades" }

// EquityModel persists one equity observation per engine cycle.
type EquityModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	TotalEquity   float64 `gorm:"column:total_equity"`
	PeakEquity    float64 `gorm:"column:peak_equity"`
	SampledAtUTC  int64   `gorm:"column:sampled_at;index"`
	CreatedAtUnix int64   `gorm:"column:created_at"`
}

func (EquityModel) TableName() string { return "equity_samples" }
