package models

import "time"

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func (d Direction) Valid() bool {
	return d == Up || d == Down
}

// Delta is the score contribution of a single vote in this direction.
func (d Direction) Delta() int {
	if d == Up {
		return 1
	}
	return -1
}

// Vote is identified by (UserID, CommentID); at most one row per pair.
type Vote struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CommentID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"comment_id"`
	Direction Direction `gorm:"size:4;not null" json:"direction"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Comment   Comment   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VoteRequest struct {
	Vote Direction `json:"vote" validate:"required,oneof=up down"`
}
