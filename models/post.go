package models

import "time"

// Post represents a blog article with its taxonomy associations
type Post struct {
	ID                 uint            `json:"id" db:"id" gorm:"primaryKey"`
	Title              string          `json:"title" db:"title" gorm:"type:varchar(200);not null;uniqueIndex"`
	Slug               string          `json:"slug" db:"slug" gorm:"type:varchar(255);not null;uniqueIndex"`
	AuthorID           *uint           `json:"authorId,omitempty" db:"author_id" gorm:"index"`
	Author             *User           `json:"author,omitempty" gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:SET NULL"`
	Content            string          `json:"content" db:"content" gorm:"type:text;not null;default:''"`
	Summary            string          `json:"summary" db:"summary" gorm:"type:text;not null;default:''"`
	CoverImage         string          `json:"coverImage,omitempty" db:"cover_image" gorm:"type:text"`
	Status             Status          `json:"status" db:"status" gorm:"type:smallint;not null;default:0;index"`
	Visible            bool            `json:"visible" db:"visible" gorm:"not null"`
	IsPinned           bool            `json:"isPinned" db:"is_pinned" gorm:"not null;default:false;index"`
	ViewsCount         int             `json:"viewsCount" db:"views_count" gorm:"not null;default:0"`
	LikesCount         int             `json:"likesCount" db:"likes_count" gorm:"not null;default:0"`
	ClassificationName *string         `json:"classification" db:"classification_name" gorm:"type:varchar(32);index"`
	Classification     *Classification `json:"-" gorm:"foreignKey:ClassificationName;references:Name;constraint:OnDelete:SET NULL"`
	Tags               []Tag           `json:"tags" gorm:"many2many:post_tags;joinForeignKey:PostID;joinReferences:TagName"`
	CreatedAt          time.Time       `json:"createdAt" db:"created_at" gorm:"not null;index"`
	UpdatedAt          time.Time       `json:"updatedAt" db:"updated_at" gorm:"not null"`
}

// ClassificationOrEmpty returns the classification name, or "" when unset.
func (p *Post) ClassificationOrEmpty() string {
	if p.ClassificationName == nil {
		return ""
	}
	return *p.ClassificationName
}
