// Package ranking computes leaderboards over scored splits. It performs no
// I/O: callers load a dataset, filter it to a time window and hand it to
// Compute.
package ranking

import (
	"strings"

	"splitboard/internal/models"
)

// DefaultMinPosts is the number of qualifying splits a user needs to appear
// on the average-rating board.
const DefaultMinPosts = 3

// Mode selects how splits are grouped and scored. It is a closed set:
// HighestSingle, AverageRating and TotalSplits.
type Mode interface {
	// Name is the public identifier used in queries and responses.
	Name() string
	rank(dataset []models.ScoredSplit, limit int) []models.LeaderboardEntry
}

// HighestSingle ranks users by their best split.
type HighestSingle struct{}

// AverageRating ranks users by mean split score, counting only users with at
// least MinPosts qualifying splits.
type AverageRating struct {
	MinPosts int
}

// TotalSplits ranks users by how many qualifying splits they posted.
type TotalSplits struct{}

func (HighestSingle) Name() string { return "highest-single" }
func (AverageRating) Name() string { return "average-rating" }
func (TotalSplits) Name() string   { return "total-splits" }

// DefaultMode is used when no type is requested.
var DefaultMode Mode = AverageRating{MinPosts: DefaultMinPosts}

// ParseMode maps a query value onto a Mode. Blank selects DefaultMode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultMode, nil
	case "highest-single":
		return HighestSingle{}, nil
	case "average-rating":
		return AverageRating{MinPosts: DefaultMinPosts}, nil
	case "total-splits":
		return TotalSplits{}, nil
	default:
		return nil, models.NewValidationError("Invalid leaderboard type. Use highest-single, average-rating or total-splits.")
	}
}
