package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Study is a research theme that groups Attributes and StudyItems.
type Study struct {
	Base

	Name        string `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Public      bool   `gorm:"default:false;index" json:"public"`

	OwnerUID uint64 `gorm:"not null;index" json:"owner_uid"`
	Owner    *User  `gorm:"foreignKey:OwnerUID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Study) TableName() string {
	return "studies"
}

// StudyWithAttributes is the study read view carrying its attribute dimensions.
type StudyWithAttributes struct {
	Study
	Attributes []Attribute `json:"attributes"`
}

// Attribute is a dimension of one Study.
type Attribute struct {
	Base

	Name        string `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Public      bool   `gorm:"default:false" json:"public"`

	StudyUID uint64 `gorm:"not null;index" json:"study_uid"`
	Study    *Study `gorm:"foreignKey:StudyUID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Attribute) TableName() string {
	return "attributes"
}

// StudyItem is one observation within a Study.
type StudyItem struct {
	Base

	Name        string     `gorm:"type:varchar(255);index" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Public      bool       `gorm:"default:false" json:"public"`
	Date        *time.Time `json:"date"`

	Position bool             `gorm:"not null" json:"position"`
	Outcome  bool             `gorm:"default:false" json:"outcome"`
	Pips     *int             `json:"pips"`
	RRR      *decimal.Decimal `gorm:"column:rrr;type:numeric(10,2)" json:"rrr"`

	StudyUID      uint64      `gorm:"not null;index" json:"study_uid"`
	Study         *Study      `gorm:"foreignKey:StudyUID;constraint:OnDelete:RESTRICT" json:"-"`
	InstrumentUID uint64      `gorm:"not null;index" json:"instrument_uid"`
	Instrument    *Instrument `gorm:"foreignKey:InstrumentUID;constraint:OnDelete:RESTRICT" json:"instrument,omitempty"`
	StyleUID      uint64      `gorm:"not null;index" json:"style_uid"`
	Style         *Style      `gorm:"foreignKey:StyleUID;constraint:OnDelete:RESTRICT" json:"style,omitempty"`

	Attributes []Attribute `gorm:"many2many:studyitem_attributes;joinForeignKey:StudyItemUID;joinReferences:AttributeUID" json:"attributes"`
}

func (StudyItem) TableName() string {
	return "studyitems"
}

// StudyItemAttribute is the join row between StudyItem and Attribute.
type StudyItemAttribute struct {
	StudyItemUID uint64 `gorm:"column:study_item_uid;primaryKey;autoIncrement:false"`
	AttributeUID uint64 `gorm:"column:attribute_uid;primaryKey;autoIncrement:false;index"`
}

func (StudyItemAttribute) TableName() string {
	return "studyitem_attributes"
}
