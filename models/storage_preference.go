package models

import "time"

// StoragePreferenceID is the primary key of the single preference row.
const StoragePreferenceID uint = 1

// StoragePreference toggles object-storage mirroring of uploaded media at runtime.
type StoragePreference struct {
	ID               uint      `json:"-" db:"id" gorm:"primaryKey"`
	UseObjectStorage bool      `json:"useObjectStorage" db:"use_object_storage" gorm:"not null;default:false"`
	CDNDomain        string    `json:"cdnDomain" db:"cdn_domain" gorm:"type:varchar(255);not null;default:''"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at" gorm:"not null"`
}
