package models

// User owns every journal resource. Owned rows reference it with ON DELETE CASCADE.
type User struct {
	Base

	FirstName      string `gorm:"type:varchar(100)" json:"first_name"`
	LastName       string `gorm:"type:varchar(100)" json:"last_name"`
	Email          string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	HashedPassword string `gorm:"type:varchar(255);not null" json:"-"`
	IsActive       bool   `gorm:"not null" json:"is_active"`
	IsSuperuser    bool   `gorm:"default:false" json:"is_superuser"`
}

func (User) TableName() string {
	return "users"
}
