package models

// Strategy is a named trading approach. Win/loss figures are derived from trades at read time.
type Strategy struct {
	Base

	Name        string `gorm:"type:varchar(100);not null;uniqueIndex:idx_strategy_name_owner" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Public      bool   `gorm:"default:false;index" json:"public"`

	OwnerUID uint64 `gorm:"not null;index;uniqueIndex:idx_strategy_name_owner" json:"owner_uid"`
	Owner    *User  `gorm:"foreignKey:OwnerUID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Strategy) TableName() string {
	return "strategies"
}

// StrategyStats is the win-rate aggregate over a strategy's trades.
type StrategyStats struct {
	TotalTrades int64   `json:"total_trades"`
	WonTrades   int64   `json:"won_trades"`
	LostTrades  int64   `json:"lost_trades"`
	WinRate     float64 `json:"win_rate"`
}

// StrategyPlusStats is the read view returned by strategy listings.
type StrategyPlusStats struct {
	Strategy
	StrategyStats
}
