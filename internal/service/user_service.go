package service

import (
	"context"

	"splitboard/internal/models"
	"splitboard/internal/repository"
)

type UserService struct {
	userRepo  repository.UserRepository
	splitRepo repository.SplitRepository
}

// Profile is a user's public page: account, aggregate stats and every split
// newest first.
type Profile struct {
	User   *models.User
	Stats  *models.UserStats
	Splits []*models.Split
}

func NewUserService(userRepo repository.UserRepository, splitRepo repository.SplitRepository) *UserService {
	return &UserService{userRepo: userRepo, splitRepo: splitRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetProfile(ctx context.Context, username string) (*Profile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	stats, err := s.userRepo.Stats(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	splits, _, err := s.splitRepo.List(ctx, repository.SplitFilter{
		Sort:   models.SortNewest,
		UserID: user.ID,
	})
	if err != nil {
		return nil, err
	}
	if splits == nil {
		splits = []*models.Split{}
	}
	return &Profile{User: user, Stats: stats, Splits: splits}, nil
}
