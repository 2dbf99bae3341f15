package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a journal entry. Instrument, Strategy and Style are restrict-protected references.
type Trade struct {
	Base

	Date        *time.Time `json:"date"`
	Description string     `gorm:"type:text" json:"description"`
	Public      bool       `gorm:"default:false;index" json:"public"`

	// Position is true for long, false for short.
	Position bool `gorm:"not null" json:"position"`
	Outcome  bool `gorm:"default:false;index" json:"outcome"`
	// Status is true while the trade is open.
	Status bool `gorm:"not null" json:"status"`

	Pips *int             `json:"pips"`
	RR   *decimal.Decimal `gorm:"column:rr;type:numeric(10,2)" json:"rr"`

	SL         *int `gorm:"column:sl" json:"sl"`
	TP         *int `gorm:"column:tp" json:"tp"`
	TPReached  bool `gorm:"column:tp_reached;default:false" json:"tp_reached"`
	TPExceeded bool `gorm:"column:tp_exceeded;default:false" json:"tp_exceeded"`
	FullStop   bool `gorm:"default:false" json:"full_stop"`

	EntryPrice *decimal.Decimal `gorm:"type:numeric(20,8)" json:"entry_price"`
	ExitPrice  *decimal.Decimal `gorm:"type:numeric(20,8)" json:"exit_price"`
	SLPrice    *decimal.Decimal `gorm:"column:sl_price;type:numeric(20,8)" json:"sl_price"`
	TPPrice    *decimal.Decimal `gorm:"column:tp_price;type:numeric(20,8)" json:"tp_price"`

	ScaledIn           bool `gorm:"default:false" json:"scaled_in"`
	ScaledOut          bool `gorm:"default:false" json:"scaled_out"`
	CorrelatedPosition bool `gorm:"default:false" json:"correlated_position"`

	InstrumentUID uint64      `gorm:"not null;index" json:"instrument_uid"`
	Instrument    *Instrument `gorm:"foreignKey:InstrumentUID;constraint:OnDelete:RESTRICT" json:"instrument,omitempty"`
	StrategyUID   uint64      `gorm:"not null;index" json:"strategy_uid"`
	Strategy      *Strategy   `gorm:"foreignKey:StrategyUID;constraint:OnDelete:RESTRICT" json:"strategy,omitempty"`
	StyleUID      uint64      `gorm:"not null;index" json:"style_uid"`
	Style         *Style      `gorm:"foreignKey:StyleUID;constraint:OnDelete:RESTRICT" json:"style,omitempty"`

	OwnerUID uint64 `gorm:"not null;index" json:"owner_uid"`
	Owner    *User  `gorm:"foreignKey:OwnerUID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Trade) TableName() string {
	return "trades"
}
