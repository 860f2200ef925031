package models

import "time"

// MaxCommentLength bounds comment content, counted in characters.
const MaxCommentLength = 500

// Comment is a remark on a split. It references the split but does not own it.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	SplitID   uint      `gorm:"not null;index" json:"splitId"`
	CreatedAt time.Time `json:"createdAt"`
	// CanDelete is computed per requester
	CanDelete bool `gorm:"-" json:"canDelete"`
}
