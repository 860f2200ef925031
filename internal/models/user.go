// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an account that owns splits and comments.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null;size:30" json:"username"`
	DisplayName string    `gorm:"not null;size:60" json:"displayName"`
	Email       string    `gorm:"uniqueIndex;not null" json:"-"`
	Password    string    `gorm:"not null" json:"-"`
	Bio         *string   `gorm:"type:text" json:"bio"`
	Avatar      *string   `json:"avatar"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"-"`
}

// UserSummary is the owner/author block embedded in split and comment payloads.
type UserSummary struct {
	ID          uint    `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Avatar      *string `json:"avatar"`
}

// Summary returns the public owner fields of u.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
	}
}

// BestSplit identifies a user's top scoring split.
type BestSplit struct {
	ID       uint    `json:"id"`
	Score    float64 `json:"score"`
	ImageURL string  `json:"imageUrl"`
}

// UserStats aggregates a profile's split history.
type UserStats struct {
	TotalSplits   int64      `json:"totalSplits"`
	AverageRating float64    `json:"averageRating"`
	BestSplit     *BestSplit `json:"bestSplit"`
}
