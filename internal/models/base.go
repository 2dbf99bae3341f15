package models

import "time"

// Base carries the surrogate key and audit timestamps shared by every journal table.
type Base struct {
	UID       uint64    `gorm:"primaryKey;autoIncrement" json:"uid"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b Base) GetUID() uint64 {
	return b.UID
}
