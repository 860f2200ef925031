package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"splitboard/internal/cache"
	"splitboard/internal/models"
	"splitboard/internal/notifications"
	"splitboard/internal/observability"
	"splitboard/internal/repository"
	"splitboard/internal/validation"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type SplitService struct {
	db        *gorm.DB
	splitRepo repository.SplitRepository
	userRepo  repository.UserRepository
	images    ImageStore
	judge     Judge
	events    EventPublisher
	rdb       *redis.Client
}

// CreateSplitInput is a fully judged split ready to persist.
type CreateSplitInput struct {
	UserID     uint
	ImageURL   string
	Caption    *string
	Score      float64
	Commentary string
}

// UploadSplitInput is a raw photo submission.
type UploadSplitInput struct {
	UserID      uint
	Caption     *string
	Content     []byte
	ContentType string
}

type ListSplitsInput struct {
	Sort   models.SplitSort
	Limit  int
	Offset int
	UserID uint
}

// SplitPage is one page of a split listing.
type SplitPage struct {
	Splits  []*models.Split
	Total   int64
	Limit   int
	Offset  int
	HasMore bool
}

// NewSplitService wires the split use cases. db may be nil, in which case
// writes run without an explicit transaction.
func NewSplitService(
	db *gorm.DB,
	splitRepo repository.SplitRepository,
	userRepo repository.UserRepository,
	images ImageStore,
	judge Judge,
	events EventPublisher,
	rdb *redis.Client,
) *SplitService {
	if events == nil {
		events = noopPublisher{}
	}
	return &SplitService{
		db:        db,
		splitRepo: splitRepo,
		userRepo:  userRepo,
		images:    images,
		judge:     judge,
		events:    events,
		rdb:       rdb,
	}
}

// CreateSplit persists a judged split atomically and returns it with its
// owner loaded.
func (s *SplitService) CreateSplit(ctx context.Context, in CreateSplitInput) (*models.Split, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	caption, err := validation.NormalizeCaption(in.Caption)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(in.ImageURL) == "" {
		return nil, models.NewValidationError("Image reference is required")
	}
	if math.IsNaN(in.Score) || in.Score < 1 || in.Score > 10 {
		return nil, models.NewValidationError("Score must be between 1 and 10")
	}
	commentary := strings.TrimSpace(in.Commentary)
	if commentary == "" {
		return nil, models.NewValidationError("Commentary is required")
	}

	split := &models.Split{
		UserID:     in.UserID,
		ImageURL:   in.ImageURL,
		Caption:    caption,
		Score:      in.Score,
		Commentary: commentary,
	}

	var created *models.Split
	err = s.inTx(ctx, func(users repository.UserRepository, splits repository.SplitRepository) error {
		exists, err := users.Exists(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !exists {
			return models.NewNotFoundError("User", in.UserID)
		}
		if err := splits.Create(ctx, split); err != nil {
			return err
		}
		// Reloaded in the same transaction: an error here rolls the insert
		// back, so a failed write never leaves a row behind.
		created, err = splits.GetByID(ctx, split.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UploadSplit runs the whole submission pipeline: store the normalized image,
// judge it, then persist the split. The stored image is removed if the split
// cannot be written.
func (s *SplitService) UploadSplit(ctx context.Context, in UploadSplitInput) (*models.Split, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	caption, err := validation.NormalizeCaption(in.Caption)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	span, ctx := observability.NewSpan(ctx, "splits.upload")
	defer span.End()
	span.AddAttributes(attribute.Int("upload.bytes", len(in.Content)))

	stored, err := s.images.Store(ctx, in.Content, in.ContentType)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	verdict := s.judge.Score(ctx, stored.Data, stored.ContentType)
	span.AddAttributes(attribute.Float64("judge.score", verdict.Score))

	split, err := s.CreateSplit(ctx, CreateSplitInput{
		UserID:     in.UserID,
		ImageURL:   stored.URL,
		Caption:    caption,
		Score:      verdict.Score,
		Commentary: verdict.Commentary,
	})
	if err != nil {
		span.SetError(err)
		if rmErr := s.images.Remove(stored.StoredName); rmErr != nil {
			observability.GlobalLogger.WarnContext(ctx, "failed to remove orphaned image",
				slog.String("image", stored.StoredName),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, err
	}

	if err := cache.InvalidateLeaderboards(ctx, s.rdb); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to invalidate leaderboards", slog.String("error", err.Error()))
	}
	if err := s.events.Publish(ctx, notifications.EventSplitCreated, split); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to publish feed event", slog.String("error", err.Error()))
	}
	return split, nil
}

// ListSplits returns one page of splits. Unknown sorts order by recency.
func (s *SplitService) ListSplits(ctx context.Context, in ListSplitsInput) (*SplitPage, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	splits, total, err := s.splitRepo.List(ctx, repository.SplitFilter{
		Sort:   in.Sort,
		Limit:  limit,
		Offset: offset,
		UserID: in.UserID,
	})
	if err != nil {
		return nil, err
	}
	if splits == nil {
		splits = []*models.Split{}
	}
	return &SplitPage{
		Splits:  splits,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	}, nil
}

// GetSplit loads a split with its comments newest first, marking which
// comments requesterID may delete. requesterID is 0 for anonymous callers.
func (s *SplitService) GetSplit(ctx context.Context, id, requesterID uint) (*models.Split, error) {
	split, err := s.splitRepo.GetWithComments(ctx, id)
	if err != nil {
		return nil, err
	}
	if split.Comments == nil {
		split.Comments = []models.Comment{}
	}
	for i := range split.Comments {
		split.Comments[i].CanDelete = CanDeleteComment(requesterID, &split.Comments[i], split)
	}
	return split, nil
}

func (s *SplitService) inTx(ctx context.Context, fn func(repository.UserRepository, repository.SplitRepository) error) error {
	if s.db == nil {
		return fn(s.userRepo, s.splitRepo)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.userRepo.WithTx(tx), s.splitRepo.WithTx(tx))
	})
	var appErr *models.AppError
	if err != nil && !errors.As(err, &appErr) {
		return models.NewInternalError(err)
	}
	return err
}
