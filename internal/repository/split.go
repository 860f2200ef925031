package repository

import (
	"context"
	"time"

	"splitboard/internal/models"
	"splitboard/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// SplitFilter narrows and orders a split listing. Limit <= 0 returns every
// matching split; a non-zero UserID restricts the listing to one owner.
type SplitFilter struct {
	Sort   models.SplitSort
	Limit  int
	Offset int
	UserID uint
}

// SplitRepository defines persistence operations for splits.
type SplitRepository interface {
	WithTx(tx *gorm.DB) SplitRepository
	Create(ctx context.Context, split *models.Split) error
	GetByID(ctx context.Context, id uint) (*models.Split, error)
	GetWithComments(ctx context.Context, id uint) (*models.Split, error)
	List(ctx context.Context, filter SplitFilter) ([]*models.Split, int64, error)
	ScoredSince(ctx context.Context, since *time.Time) ([]models.ScoredSplit, error)
}

type splitRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSplitRepository creates a new split repository
func NewSplitRepository(db *gorm.DB) SplitRepository {
	return &splitRepository{db: db, log: observability.NewRepoLogger("splits")}
}

func (r *splitRepository) WithTx(tx *gorm.DB) SplitRepository {
	return &splitRepository{db: tx, log: r.log}
}

// Create inserts split in a single statement; score and commentary must
// already be set.
func (r *splitRepository) Create(ctx context.Context, split *models.Split) error {
	defer observability.TrackQuery("create", "splits")()
	if err := r.db.WithContext(ctx).Omit("User", "Comments").Create(split).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return mapError(err, "User", split.UserID)
	}
	r.log.LogCreate(ctx, map[string]any{"split_id": split.ID, "user_id": split.UserID})
	return nil
}

func (r *splitRepository) GetByID(ctx context.Context, id uint) (*models.Split, error) {
	defer observability.TrackQuery("get_by_id", "splits")()
	var split models.Split
	err := withCommentsCount(r.db.WithContext(ctx)).
		Preload("User").
		First(&split, id).Error
	if err != nil {
		return nil, mapError(err, "Split", id)
	}
	r.log.LogRead(ctx, map[string]any{"split_id": id})
	return &split, nil
}

// GetWithComments loads a split with its owner and its comments newest first.
func (r *splitRepository) GetWithComments(ctx context.Context, id uint) (*models.Split, error) {
	defer observability.TrackQuery("get_with_comments", "splits")()
	var split models.Split
	err := withCommentsCount(r.db.WithContext(ctx)).
		Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at DESC, comments.id DESC")
		}).
		Preload("Comments.User").
		First(&split, id).Error
	if err != nil {
		return nil, mapError(err, "Split", id)
	}
	return &split, nil
}

// List returns one page of splits and the total matching count.
func (r *splitRepository) List(ctx context.Context, filter SplitFilter) ([]*models.Split, int64, error) {
	defer observability.TrackQuery("list", "splits")()
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "List", "splits")
	defer span.End()
	span.SetAttributes(
		attribute.String("splits.sort", string(filter.Sort)),
		attribute.Int("splits.limit", filter.Limit),
		attribute.Int("splits.offset", filter.Offset),
	)

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.UserID != 0 {
			return db.Where("splits.user_id = ?", filter.UserID)
		}
		return db
	}

	var total int64
	if err := scope(r.db.WithContext(ctx).Model(&models.Split{})).Count(&total).Error; err != nil {
		r.log.LogError(ctx, err, "count")
		return nil, 0, models.NewInternalError(err)
	}

	var splits []*models.Split
	q := applySort(scope(withCommentsCount(r.db.WithContext(ctx)).Preload("User")), filter.Sort)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Offset(filter.Offset).Find(&splits).Error
	if err != nil {
		r.log.LogError(ctx, err, "list")
		return nil, 0, models.NewInternalError(err)
	}
	return splits, total, nil
}

// ScoredSince projects every split created at or after since, or all splits
// when since is nil, joined with its owner.
func (r *splitRepository) ScoredSince(ctx context.Context, since *time.Time) ([]models.ScoredSplit, error) {
	defer observability.TrackQuery("scored_since", "splits")()
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "ScoredSince", "splits")
	defer span.End()

	q := r.db.WithContext(ctx).
		Table("splits").
		Select("splits.id AS split_id, splits.user_id, users.username, users.display_name, users.avatar, splits.score, splits.created_at").
		Joins("JOIN users ON users.id = splits.user_id")
	if since != nil {
		q = q.Where("splits.created_at >= ?", *since)
	}

	var rows []models.ScoredSplit
	if err := q.Scan(&rows).Error; err != nil {
		r.log.LogError(ctx, err, "scored_since")
		return nil, models.NewInternalError(err)
	}
	span.SetAttributes(attribute.Int("splits.rows", len(rows)))
	return rows, nil
}

// withCommentsCount selects the split columns plus a correlated comment count.
func withCommentsCount(db *gorm.DB) *gorm.DB {
	return db.Select("splits.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.split_id = splits.id) AS comments_count")
}

// applySort appends the ORDER BY clause for the requested sort. Trending is a
// recency ordering.
func applySort(db *gorm.DB, sort models.SplitSort) *gorm.DB {
	switch sort {
	case models.SortHighestRated:
		return db.Order("splits.score DESC, splits.created_at DESC, splits.id DESC")
	default: // newest, trending and anything unrecognized
		return db.Order("splits.created_at DESC, splits.id DESC")
	}
}
