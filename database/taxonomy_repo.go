package database

import (
	"context"

	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/models"
	"gorm.io/gorm"
)

// TaxonomyRepo stores classifications or tags; both share one table shape.
type TaxonomyRepo struct {
	db     *gorm.DB
	table  string
	entity string

	// countPosts builds the live association count for one entry
	countPosts func(db *gorm.DB, name string) *gorm.DB
	// detach removes references to an entry before it is deleted
	detach func(tx *gorm.DB, name string) error
}

func NewClassificationRepo(db *gorm.DB) *TaxonomyRepo {
	return &TaxonomyRepo{
		db:     db,
		table:  "classifications",
		entity: "classification",
		countPosts: func(db *gorm.DB, name string) *gorm.DB {
			return db.Model(&models.Post{}).Where("classification_name = ?", name)
		},
		detach: func(tx *gorm.DB, name string) error {
			return tx.Model(&models.Post{}).Where("classification_name = ?", name).
				Update("classification_name", nil).Error
		},
	}
}

func NewTagRepo(db *gorm.DB) *TaxonomyRepo {
	return &TaxonomyRepo{
		db:     db,
		table:  "tags",
		entity: "tag",
		countPosts: func(db *gorm.DB, name string) *gorm.DB {
			return db.Table("post_tags").Where("tag_name = ?", name)
		},
		detach: func(tx *gorm.DB, name string) error {
			return tx.Exec("DELETE FROM post_tags WHERE tag_name = ?", name).Error
		},
	}
}

func (r *TaxonomyRepo) FindAll(ctx context.Context) ([]*models.Taxonomy, error) {
	var entries []*models.Taxonomy
	err := r.db.WithContext(ctx).Table(r.table).Order("name").Find(&entries).Error
	return entries, err
}

func (r *TaxonomyRepo) FindByName(ctx context.Context, name string) (*models.Taxonomy, error) {
	var entry models.Taxonomy
	if err := r.db.WithContext(ctx).Table(r.table).Where("name = ?", name).First(&entry).Error; err != nil {
		return nil, notFound(err, r.entity)
	}
	return &entry, nil
}

func (r *TaxonomyRepo) Add(ctx context.Context, entry *models.Taxonomy) error {
	return r.db.WithContext(ctx).Table(r.table).Create(entry).Error
}

// Update changes the color of an entry; the cached count is owned by SetItemCount
func (r *TaxonomyRepo) Update(ctx context.Context, entry *models.Taxonomy) error {
	res := r.db.WithContext(ctx).Table(r.table).Where("name = ?", entry.Name).Update("color", entry.Color)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFound(r.entity)
	}
	return nil
}

func (r *TaxonomyRepo) Delete(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.detach(tx, name); err != nil {
			return err
		}
		res := tx.Table(r.table).Where("name = ?", name).Delete(&models.Taxonomy{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NewNotFound(r.entity)
		}
		return nil
	})
}

// CountPosts returns the live number of posts associated with an entry
func (r *TaxonomyRepo) CountPosts(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.countPosts(r.db.WithContext(ctx), name).Count(&count).Error
	return count, err
}

func (r *TaxonomyRepo) SetItemCount(ctx context.Context, name string, count int) error {
	return r.db.WithContext(ctx).Table(r.table).Where("name = ?", name).Update("item_count", count).Error
}
