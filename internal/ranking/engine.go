package ranking

import (
	"cmp"
	"slices"
	"time"

	"splitboard/internal/models"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Result is a computed leaderboard plus the requesting user's own row.
type Result struct {
	Entries   []models.LeaderboardEntry
	Requester *models.LeaderboardEntry
}

// NormalizeLimit applies the default and the upper bound.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// Compute ranks dataset under mode. The dataset must already be restricted to
// the requested window. Ties are broken by the earliest qualifying split and
// then by user id. The requester is looked up only among the returned
// entries, so a user outside the top limit gets no Requester row.
func Compute(mode Mode, dataset []models.ScoredSplit, limit int, requesterID uint) Result {
	if mode == nil {
		mode = DefaultMode
	}
	entries := mode.rank(dataset, NormalizeLimit(limit))
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return Result{Entries: entries, Requester: FindEntry(entries, requesterID)}
}

// FindEntry returns a copy of userID's row, or nil.
func FindEntry(entries []models.LeaderboardEntry, userID uint) *models.LeaderboardEntry {
	if userID == 0 {
		return nil
	}
	for i := range entries {
		if entries[i].UserID == userID {
			e := entries[i]
			return &e
		}
	}
	return nil
}

func compareEntries(a, b models.LeaderboardEntry) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := a.AchievedAt.Compare(b.AchievedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.UserID, b.UserID)
}

func entryFor(s models.ScoredSplit) models.LeaderboardEntry {
	return models.LeaderboardEntry{
		UserID:      s.UserID,
		Username:    s.Username,
		DisplayName: s.DisplayName,
		Avatar:      s.Avatar,
	}
}

func (HighestSingle) rank(dataset []models.ScoredSplit, limit int) []models.LeaderboardEntry {
	sorted := slices.Clone(dataset)
	slices.SortStableFunc(sorted, func(a, b models.ScoredSplit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(a.UserID, b.UserID); c != 0 {
			return c
		}
		return cmp.Compare(a.SplitID, b.SplitID)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	seen := make(map[uint]struct{}, len(sorted))
	entries := make([]models.LeaderboardEntry, 0, len(sorted))
	for _, s := range sorted {
		if _, dup := seen[s.UserID]; dup {
			continue
		}
		seen[s.UserID] = struct{}{}
		e := entryFor(s)
		e.Score = s.Score
		e.AchievedAt = s.CreatedAt
		splitID := s.SplitID
		e.SplitID = &splitID
		entries = append(entries, e)
	}
	return entries
}

type userAggregate struct {
	entry    models.LeaderboardEntry
	count    int
	sum      float64
	earliest time.Time
}

func aggregate(dataset []models.ScoredSplit) []*userAggregate {
	byUser := make(map[uint]*userAggregate)
	order := make([]*userAggregate, 0)
	for _, s := range dataset {
		agg, ok := byUser[s.UserID]
		if !ok {
			agg = &userAggregate{entry: entryFor(s), earliest: s.CreatedAt}
			byUser[s.UserID] = agg
			order = append(order, agg)
		}
		agg.count++
		agg.sum += s.Score
		if s.CreatedAt.Before(agg.earliest) {
			agg.earliest = s.CreatedAt
		}
	}
	return order
}

func finish(entries []models.LeaderboardEntry, limit int) []models.LeaderboardEntry {
	slices.SortStableFunc(entries, compareEntries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func (m AverageRating) rank(dataset []models.ScoredSplit, limit int) []models.LeaderboardEntry {
	minPosts := m.MinPosts
	if minPosts <= 0 {
		minPosts = DefaultMinPosts
	}

	entries := make([]models.LeaderboardEntry, 0)
	for _, agg := range aggregate(dataset) {
		if agg.count < minPosts {
			continue
		}
		e := agg.entry
		e.Score = agg.sum / float64(agg.count)
		e.AchievedAt = agg.earliest
		count := agg.count
		e.SplitCount = &count
		entries = append(entries, e)
	}
	return finish(entries, limit)
}

func (TotalSplits) rank(dataset []models.ScoredSplit, limit int) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0)
	for _, agg := range aggregate(dataset) {
		e := agg.entry
		e.Score = float64(agg.count)
		e.AchievedAt = agg.earliest
		count := agg.count
		e.SplitCount = &count
		entries = append(entries, e)
	}
	return finish(entries, limit)
}
