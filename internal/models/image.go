package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImageKind names the parent an image row hangs off.
type ImageKind string

const (
	ImageKindStrategy  ImageKind = "strategy"
	ImageKindTrade     ImageKind = "trade"
	ImageKindStudyItem ImageKind = "studyitem"
)

func (k ImageKind) Valid() bool {
	switch k {
	case ImageKindStrategy, ImageKindTrade, ImageKindStudyItem:
		return true
	}
	return false
}

// ImageAsset holds the metadata the asset service returns for an upload.
type ImageAsset struct {
	Location   string         `gorm:"type:text;not null" json:"location"`
	Alt        string         `gorm:"type:varchar(255)" json:"alt"`
	PublicUID  string         `gorm:"column:public_uid;type:varchar(255);index" json:"public_uid"`
	AssetUID   string         `gorm:"column:asset_uid;type:varchar(255)" json:"asset_uid"`
	Signature  string         `gorm:"type:varchar(255)" json:"signature"`
	Version    string         `gorm:"type:varchar(64)" json:"version"`
	VersionUID string         `gorm:"column:version_uid;type:varchar(255)" json:"version_uid"`
	Tags       datatypes.JSON `json:"tags"`
}

type StrategyImage struct {
	Base
	ImageAsset

	StrategyUID uint64    `gorm:"not null;index" json:"strategy_uid"`
	Strategy    *Strategy `gorm:"foreignKey:StrategyUID;constraint:OnDelete:CASCADE" json:"-"`
}

func (StrategyImage) TableName() string {
	return "strategy_images"
}

type TradeImage struct {
	Base
	ImageAsset

	TradeUID uint64 `gorm:"not null;index" json:"trade_uid"`
	Trade    *Trade `gorm:"foreignKey:TradeUID;constraint:OnDelete:CASCADE" json:"-"`
}

func (TradeImage) TableName() string {
	return "trade_images"
}

type StudyItemImage struct {
	Base
	ImageAsset

	StudyItemUID uint64     `gorm:"column:studyitem_uid;not null;index" json:"studyitem_uid"`
	StudyItem    *StudyItem `gorm:"foreignKey:StudyItemUID;constraint:OnDelete:CASCADE" json:"-"`
}

func (StudyItemImage) TableName() string {
	return "studyitem_images"
}

// Image is the kind-agnostic view of an image row.
type Image struct {
	UID       uint64    `json:"uid"`
	Kind      ImageKind `json:"kind"`
	ParentUID uint64    `json:"parent_uid"`
	ImageAsset
	CreatedAt time.Time `json:"created_at"`
}

func (m StrategyImage) View() Image {
	return Image{UID: m.UID, Kind: ImageKindStrategy, ParentUID: m.StrategyUID, ImageAsset: m.ImageAsset, CreatedAt: m.CreatedAt}
}

func (m TradeImage) View() Image {
	return Image{UID: m.UID, Kind: ImageKindTrade, ParentUID: m.TradeUID, ImageAsset: m.ImageAsset, CreatedAt: m.CreatedAt}
}

func (m StudyItemImage) View() Image {
	return Image{UID: m.UID, Kind: ImageKindStudyItem, ParentUID: m.StudyItemUID, ImageAsset: m.ImageAsset, CreatedAt: m.CreatedAt}
}
