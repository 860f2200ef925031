// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"splitboard/internal/models"
	"splitboard/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Stats(ctx context.Context, id uint) (*models.UserStats, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx, log: r.log}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer observability.TrackQuery("get_by_id", "users")()
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapError(err, "User", id)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no user has username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer observability.TrackQuery("get_by_username", "users")()
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return mapError(err, "User", nil)
	}
	r.log.LogCreate(ctx, map[string]any{"user_id": user.ID})
	return nil
}

// Stats aggregates a user's splits. AverageRating is 0 and BestSplit nil
// when the user has none; ties for best go to the earliest split.
func (r *userRepository) Stats(ctx context.Context, id uint) (*models.UserStats, error) {
	defer observability.TrackQuery("stats", "splits")()
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "Stats", "splits")
	defer span.End()

	var agg struct {
		Total   int64
		Average float64
	}
	err := r.db.WithContext(ctx).Model(&models.Split{}).
		Select("COUNT(*) AS total, COALESCE(AVG(score), 0) AS average").
		Where("user_id = ?", id).
		Scan(&agg).Error
	if err != nil {
		r.log.LogError(ctx, err, "stats")
		return nil, models.NewInternalError(err)
	}

	stats := &models.UserStats{TotalSplits: agg.Total, AverageRating: agg.Average}
	if agg.Total == 0 {
		return stats, nil
	}

	var best models.Split
	err = r.db.WithContext(ctx).
		Where("user_id = ?", id).
		Order("score DESC, created_at ASC, id ASC").
		First(&best).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.LogError(ctx, err, "best_split")
		return nil, models.NewInternalError(err)
	}
	if err == nil {
		stats.BestSplit = &models.BestSplit{ID: best.ID, Score: best.Score, ImageURL: best.ImageURL}
	}
	return stats, nil
}
