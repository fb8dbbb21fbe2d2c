package models

import "time"

const MaxContentLength = 1000

// Comment is either top-level (ParentID nil) or a reply to a top-level comment.
// Replies are only populated on reads.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	AuthorID   uint      `gorm:"not null;index" json:"author_id"`
	User       User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"user"`
	ParentID   *uint     `gorm:"index" json:"parent_id"`
	Replies    []Comment `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"replies"`
	ReplyingTo *string   `gorm:"size:100" json:"replying_to"`
	Score      int       `gorm:"not null;default:0" json:"score"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

type CreateCommentRequest struct {
	Content    string  `json:"content" validate:"required,min=1,max=1000"`
	ParentID   *uint   `json:"parent_id" validate:"omitempty,gt=0"`
	ReplyingTo *string `json:"replying_to" validate:"omitempty,max=100"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}
