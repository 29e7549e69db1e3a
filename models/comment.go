package models

import "time"

// Comment is a node in a post's comment forest. ParentID links a reply to
// the comment it answers; a reply always belongs to its parent's post.
type Comment struct {
	ID        uint      `json:"id" db:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" gorm:"not null;index"`
	Content   string    `json:"content" db:"content" gorm:"type:text;not null"`
	Status    Status    `json:"status" db:"status" gorm:"type:smallint;not null;default:0;index"`
	Banned    bool      `json:"banned" db:"banned" gorm:"not null;default:false;index"`
	AuthorID  *uint     `json:"authorId,omitempty" db:"author_id" gorm:"index"`
	Author    *User     `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:SET NULL"`
	PostID    uint      `json:"postId" db:"post_id" gorm:"not null;index"`
	Post      *Post     `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
	ParentID  *uint     `json:"parentId,omitempty" db:"parent_id" gorm:"index"`
	Parent    *Comment  `json:"-" gorm:"foreignKey:ParentID;references:ID;constraint:OnDelete:CASCADE"`
}

// IsTopLevel reports whether the comment answers the post directly.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}
