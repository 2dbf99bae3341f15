package models

// Style is a holding-period category. System styles have no owner. Names are globally unique.
type Style struct {
	Base

	Name        string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Public      bool   `gorm:"default:false;index" json:"public"`

	OwnerUID *uint64 `gorm:"index" json:"owner_uid"`
	Owner    *User   `gorm:"foreignKey:OwnerUID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Style) TableName() string {
	return "styles"
}
