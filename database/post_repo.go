package database

import (
	"context"
	"errors"

	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepo struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) *PostRepo {
	return &PostRepo{db}
}

func (r *PostRepo) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Author")
}

// FindAll returns the posts matching filter
func (r *PostRepo) FindAll(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	q := r.withRelations(ctx).Model(&models.Post{})

	if len(filter.Classifications) > 0 {
		q = q.Where("classification_name IN ?", filter.Classifications)
	}
	if len(filter.Tags) > 0 {
		tagged := r.db.WithContext(ctx).Table("post_tags").Select("post_id").Where("tag_name IN ?", filter.Tags)
		q = q.Where("id IN (?)", tagged)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Pinned != nil {
		q = q.Where("is_pinned = ?", *filter.Pinned)
	}
	if filter.Start != nil {
		q = q.Where("created_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		q = q.Where("created_at <= ?", *filter.End)
	}
	if !filter.IncludeHidden {
		if filter.ViewerID != nil {
			q = q.Where("(visible = ? OR author_id = ?)", true, *filter.ViewerID)
		} else {
			q = q.Where("visible = ?", true)
		}
	}

	if order, ok := PostOrderings[filter.Ordering]; ok {
		q = q.Order(order).Order("id DESC")
	} else {
		q = q.Order("is_pinned DESC").Order("created_at DESC").Order("id DESC")
	}

	var posts []*models.Post
	err := q.Find(&posts).Error
	return posts, err
}

// FindByID returns a post by its ID
func (r *PostRepo) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withRelations(ctx).First(&post, id).Error; err != nil {
		return nil, notFound(err, "post")
	}
	return &post, nil
}

// FindBySlug returns a post by its slug
func (r *PostRepo) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	if err := r.withRelations(ctx).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, notFound(err, "post")
	}
	return &post, nil
}

func (r *PostRepo) FindByIDs(ctx context.Context, ids []uint) ([]*models.Post, error) {
	var posts []*models.Post
	if len(ids) == 0 {
		return posts, nil
	}
	err := r.withRelations(ctx).Where("id IN ?", ids).Order("id").Find(&posts).Error
	return posts, err
}

// SlugTaken reports whether a post other than excludeID already uses slug
func (r *PostRepo) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&count).Error
	return count > 0, err
}

// Add inserts a new post; tag associations are managed separately
func (r *PostRepo) Add(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

// Update saves every column of an existing post; tag associations are managed separately
func (r *PostRepo) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error
}

// Delete removes a post; comments go with it through the foreign key cascade
func (r *PostRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NewNotFound("post")
		}
		return nil
	})
}

func (r *PostRepo) IncrementViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

func (r *PostRepo) SetStatus(ctx context.Context, ids []uint, status models.Status) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id IN ?", ids).Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *PostRepo) SetPinned(ctx context.Context, ids []uint, pinned bool) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id IN ?", ids).Update("is_pinned", pinned)
	return res.RowsAffected, res.Error
}

// TagNames returns the names of the tags currently attached to a post
func (r *PostRepo) TagNames(ctx context.Context, postID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Table("post_tags").
		Where("post_id = ?", postID).
		Order("tag_name").
		Pluck("tag_name", &names).Error
	return names, err
}

func (r *PostRepo) AddTags(ctx context.Context, postID uint, names []string) error {
	if len(names) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		rows = append(rows, map[string]interface{}{"post_id": postID, "tag_name": name})
	}
	return r.db.WithContext(ctx).Table("post_tags").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rows).Error
}

func (r *PostRepo) RemoveTags(ctx context.Context, postID uint, names []string) error {
	if len(names) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Exec("DELETE FROM post_tags WHERE post_id = ? AND tag_name IN ?", postID, names).Error
}

func (r *PostRepo) ClearTags(ctx context.Context, postID uint) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM post_tags WHERE post_id = ?", postID).Error
}

// notFound converts gorm's missing-record error into an API not-found error
func notFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewNotFound(entity)
	}
	return err
}
