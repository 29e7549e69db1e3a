package database

import (
	"context"

	"github.com/rpupo63/myblog-backend/models"
	"gorm.io/gorm"
)

type StoragePreferenceRepo struct {
	db *gorm.DB
}

func NewStoragePreferenceRepo(db *gorm.DB) *StoragePreferenceRepo {
	return &StoragePreferenceRepo{db}
}

// Get returns the singleton preference row, creating it with defaults on first use
func (r *StoragePreferenceRepo) Get(ctx context.Context) (*models.StoragePreference, error) {
	pref := models.StoragePreference{ID: models.StoragePreferenceID}
	err := r.db.WithContext(ctx).FirstOrCreate(&pref, models.StoragePreference{ID: models.StoragePreferenceID}).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *StoragePreferenceRepo) Save(ctx context.Context, pref *models.StoragePreference) error {
	pref.ID = models.StoragePreferenceID
	return r.db.WithContext(ctx).Save(pref).Error
}
