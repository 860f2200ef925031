package models

import "time"

// MaxCaptionLength bounds split captions, counted in characters.
const MaxCaptionLength = 500

// Split is a submitted photo together with the judge's verdict. Score and
// Commentary are written in the same INSERT that creates the row.
type Split struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index;index:idx_splits_user_created,priority:1" json:"userId"`
	User       User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	ImageURL   string    `gorm:"not null" json:"imageUrl"`
	Caption    *string   `gorm:"size:500" json:"caption"`
	Score      float64   `gorm:"not null;index" json:"score"`
	Commentary string    `gorm:"type:text;not null" json:"commentary"`
	Comments   []Comment `gorm:"foreignKey:SplitID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int       `gorm:"->" json:"commentsCount"`
	CreatedAt     time.Time `gorm:"index;index:idx_splits_user_created,priority:2" json:"createdAt"`
}

// Judgment is the judge's verdict on a single image.
type Judgment struct {
	Score      float64 `json:"score"`
	Commentary string  `json:"commentary"`
}

// SplitSort selects the ordering of split listings.
type SplitSort string

const (
	SortNewest       SplitSort = "newest"
	SortHighestRated SplitSort = "highest-rated"
	// SortTrending is a recency proxy and orders like SortNewest.
	SortTrending SplitSort = "trending"
)

// ScoredSplit is the projection the ranking engine aggregates over.
type ScoredSplit struct {
	SplitID     uint
	UserID      uint
	Username    string
	DisplayName string
	Avatar      *string
	Score       float64
	CreatedAt   time.Time
}
