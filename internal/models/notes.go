package models

// TradingPlan, Task and WatchList are plain owned notes.

type TradingPlan struct {
	Base

	Name        string `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Public      bool   `gorm:"default:false;index" json:"public"`

	OwnerUID uint64 `gorm:"not null;index" json:"owner_uid"`
	Owner    *User  `gorm:"foreignKey:OwnerUID;constraint:OnDelete:CASCADE" json:"-"`
}

func (TradingPlan) TableName() string {
	return "trading_plans"
}

type Task struct {
	Base

	Name        string `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Public      bool   `gorm:"default:false;index" json:"public"`

	OwnerUID uint64 `gorm:"not null;index" json:"owner_uid"`
	Owner    *User  `gorm:"foreignKey:OwnerUID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}

type WatchList struct {
	Base

	Name        string `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Public      bool   `gorm:"default:false;index" json:"public"`

	OwnerUID uint64 `gorm:"not null;index" json:"owner_uid"`
	Owner    *User  `gorm:"foreignKey:OwnerUID;constraint:OnDelete:CASCADE" json:"-"`
}

func (WatchList) TableName() string {
	return "watchlists"
}
