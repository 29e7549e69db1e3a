package models

import "time"

// User is an account that can author posts and comments
type User struct {
	ID          uint      `json:"id" db:"id" gorm:"primaryKey"`
	Username    string    `json:"username" db:"username" gorm:"type:varchar(150);not null;uniqueIndex"`
	Email       string    `json:"email" db:"email" gorm:"type:varchar(254);not null;uniqueIndex"`
	Signature   string    `json:"signature" db:"signature" gorm:"type:text;not null;default:''"`
	Avatar      string    `json:"avatar,omitempty" db:"avatar" gorm:"type:text"`
	IsStaff     bool      `json:"isStaff" db:"is_staff" gorm:"not null;default:false"`
	IsSuperuser bool      `json:"isSuperuser" db:"is_superuser" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at" gorm:"not null"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at" gorm:"not null"`
}

// IsAdmin reports whether the user may moderate and manage any content.
func (u *User) IsAdmin() bool {
	return u != nil && (u.IsStaff || u.IsSuperuser)
}
