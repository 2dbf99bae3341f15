package models

// Instrument is a tradable symbol. Name is stored uppercase and is unique per owner.
type Instrument struct {
	Base

	Name        string `gorm:"type:varchar(50);not null;uniqueIndex:idx_instrument_name_owner" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Public      bool   `gorm:"default:false;index" json:"public"`

	OwnerUID uint64 `gorm:"not null;index;uniqueIndex:idx_instrument_name_owner" json:"owner_uid"`
	Owner    *User  `gorm:"foreignKey:OwnerUID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Instrument) TableName() string {
	return "instruments"
}
