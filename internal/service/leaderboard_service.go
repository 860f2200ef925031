package service

import (
	"context"
	"log/slog"
	"time"

	"splitboard/internal/cache"
	"splitboard/internal/models"
	"splitboard/internal/observability"
	"splitboard/internal/ranking"
	"splitboard/internal/repository"

	"github.com/redis/go-redis/v9"
)

type LeaderboardService struct {
	splitRepo repository.SplitRepository
	rdb       *redis.Client
	ttl       time.Duration
	now       func() time.Time
}

// LeaderboardQuery selects a ranking. Empty Type and Timeframe take their
// defaults; RequesterID 0 skips the requester lookup.
type LeaderboardQuery struct {
	Type        string
	Timeframe   string
	Limit       int
	RequesterID uint
}

type LeaderboardResult struct {
	Entries   []models.LeaderboardEntry
	Requester *models.LeaderboardEntry
	Type      string
	Timeframe ranking.Timeframe
}

// NewLeaderboardService builds the service. A nil rdb disables caching and a
// non-positive ttl falls back to cache.DefaultLeaderboardTTL.
func NewLeaderboardService(splitRepo repository.SplitRepository, rdb *redis.Client, ttl time.Duration) *LeaderboardService {
	if ttl <= 0 {
		ttl = cache.DefaultLeaderboardTTL
	}
	return &LeaderboardService{splitRepo: splitRepo, rdb: rdb, ttl: ttl, now: time.Now}
}

func (s *LeaderboardService) Compute(ctx context.Context, q LeaderboardQuery) (*LeaderboardResult, error) {
	mode, err := ranking.ParseMode(q.Type)
	if err != nil {
		return nil, err
	}
	timeframe, err := ranking.ParseTimeframe(q.Timeframe)
	if err != nil {
		return nil, err
	}
	limit := ranking.NormalizeLimit(q.Limit)

	load := func() ([]models.LeaderboardEntry, error) {
		var since *time.Time
		if t, ok := timeframe.Since(s.now()); ok {
			since = &t
		}
		dataset, err := s.splitRepo.ScoredSince(ctx, since)
		if err != nil {
			return nil, err
		}
		if since != nil {
			dataset = ranking.FilterWindow(dataset, *since)
		}
		return ranking.Compute(mode, dataset, limit, 0).Entries, nil
	}

	var entries []models.LeaderboardEntry
	version, err := cache.LeaderboardVersion(ctx, s.rdb)
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "leaderboard cache unavailable", slog.String("error", err.Error()))
		observability.LeaderboardCacheResults.WithLabelValues("bypass").Inc()
		if entries, err = load(); err != nil {
			return nil, err
		}
	} else {
		key := cache.LeaderboardKey(version, mode.Name(), string(timeframe), limit)
		hit, err := cache.Aside(ctx, s.rdb, key, &entries, s.ttl, func() error {
			var err error
			entries, err = load()
			return err
		})
		if err != nil {
			return nil, err
		}
		if hit {
			observability.LeaderboardCacheResults.WithLabelValues("hit").Inc()
		} else {
			observability.LeaderboardCacheResults.WithLabelValues("miss").Inc()
		}
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	return &LeaderboardResult{
		Entries:   entries,
		Requester: ranking.FindEntry(entries, q.RequesterID),
		Type:      mode.Name(),
		Timeframe: timeframe,
	}, nil
}
