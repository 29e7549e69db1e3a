package database

import (
	"context"

	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db}
}

func (r *CommentRepo) query(ctx context.Context, filter CommentFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Comment{})
	if filter.PostID != nil {
		q = q.Where("post_id = ?", *filter.PostID)
	}
	if filter.ParentID != nil {
		q = q.Where("parent_id = ?", *filter.ParentID)
	} else if filter.RootOnly {
		q = q.Where("parent_id IS NULL")
	}
	if filter.Banned != nil {
		q = q.Where("banned = ?", *filter.Banned)
	}
	return q.Order("created_at DESC").Order("id DESC")
}

// FindVisible returns the non-banned comments matching filter
func (r *CommentRepo) FindVisible(ctx context.Context, filter CommentFilter) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.query(ctx, filter).Where("banned = ?", false).Find(&comments).Error
	return comments, err
}

// FindAll returns every comment matching filter, banned ones included
func (r *CommentRepo) FindAll(ctx context.Context, filter CommentFilter) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.query(ctx, filter).Find(&comments).Error
	return comments, err
}

func (r *CommentRepo) FindVisibleByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("banned = ?", false).First(&comment, id).Error; err != nil {
		return nil, notFound(err, "comment")
	}
	return &comment, nil
}

func (r *CommentRepo) FindByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, notFound(err, "comment")
	}
	return &comment, nil
}

// FindReplies loads the direct replies of every parent in one query, grouped by parent id
func (r *CommentRepo) FindReplies(ctx context.Context, parentIDs []uint, includeBanned bool) (map[uint][]*models.Comment, error) {
	result := make(map[uint][]*models.Comment, len(parentIDs))
	if len(parentIDs) == 0 {
		return result, nil
	}

	q := r.db.WithContext(ctx).Where("parent_id IN ?", parentIDs)
	if !includeBanned {
		q = q.Where("banned = ?", false)
	}

	var comments []*models.Comment
	if err := q.Order("created_at DESC").Order("id DESC").Find(&comments).Error; err != nil {
		return nil, err
	}

	for _, c := range comments {
		if c.ParentID != nil {
			result[*c.ParentID] = append(result[*c.ParentID], c)
		}
	}
	return result, nil
}

func (r *CommentRepo) Add(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

func (r *CommentRepo) Update(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(comment).Error
}

// Delete removes a comment; its replies go with it through the foreign key cascade
func (r *CommentRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFound("comment")
	}
	return nil
}

func (r *CommentRepo) SetBanned(ctx context.Context, ids []uint, banned bool) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id IN ?", ids).Update("banned", banned)
	return res.RowsAffected, res.Error
}

func (r *CommentRepo) SetStatus(ctx context.Context, ids []uint, status models.Status) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id IN ?", ids).Update("status", status)
	return res.RowsAffected, res.Error
}
