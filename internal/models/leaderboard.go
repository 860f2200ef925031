package models

import "time"

// LeaderboardEntry is a derived ranking row. It is never persisted.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      uint      `json:"userId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Avatar      *string   `json:"avatar"`
	Score       float64   `json:"score"`
	SplitCount  *int      `json:"splitCount,omitempty"`
	SplitID     *uint     `json:"splitId,omitempty"`
	AchievedAt  time.Time `json:"achievedAt"`
}
