package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"splitboard/internal/models"
	"splitboard/internal/repository"
	"splitboard/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// splitRepoStub is a stub for repository.SplitRepository.
type splitRepoStub struct {
	createFn          func(context.Context, *models.Split) error
	getByIDFn         func(context.Context, uint) (*models.Split, error)
	getWithCommentsFn func(context.Context, uint) (*models.Split, error)
	listFn            func(context.Context, repository.SplitFilter) ([]*models.Split, int64, error)
	scoredSinceFn     func(context.Context, *time.Time) ([]models.ScoredSplit, error)
}

func (s *splitRepoStub) WithTx(_ *gorm.DB) repository.SplitRepository { return s }
func (s *splitRepoStub) Create(ctx context.Context, split *models.Split) error {
	return s.createFn(ctx, split)
}
func (s *splitRepoStub) GetByID(ctx context.Context, id uint) (*models.Split, error) {
	return s.getByIDFn(ctx, id)
}
func (s *splitRepoStub) GetWithComments(ctx context.Context, id uint) (*models.Split, error) {
	return s.getWithCommentsFn(ctx, id)
}
func (s *splitRepoStub) List(ctx context.Context, f repository.SplitFilter) ([]*models.Split, int64, error) {
	return s.listFn(ctx, f)
}
func (s *splitRepoStub) ScoredSince(ctx context.Context, since *time.Time) ([]models.ScoredSplit, error) {
	return s.scoredSinceFn(ctx, since)
}

func noopSplitRepo() *splitRepoStub {
	return &splitRepoStub{
		createFn:          func(_ context.Context, _ *models.Split) error { return nil },
		getByIDFn:         func(_ context.Context, id uint) (*models.Split, error) { return &models.Split{ID: id}, nil },
		getWithCommentsFn: func(_ context.Context, id uint) (*models.Split, error) { return &models.Split{ID: id}, nil },
		listFn: func(_ context.Context, _ repository.SplitFilter) ([]*models.Split, int64, error) {
			return nil, 0, nil
		},
		scoredSinceFn: func(_ context.Context, _ *time.Time) ([]models.ScoredSplit, error) { return nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	existsFn        func(context.Context, uint) (bool, error)
	createFn        func(context.Context, *models.User) error
	statsFn         func(context.Context, uint) (*models.UserStats, error)
}

func (s *userRepoStub) WithTx(_ *gorm.DB) repository.UserRepository { return s }
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Stats(ctx context.Context, id uint) (*models.UserStats, error) {
	return s.statsFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		existsFn:        func(_ context.Context, _ uint) (bool, error) { return true, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		statsFn:         func(_ context.Context, _ uint) (*models.UserStats, error) { return &models.UserStats{}, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn  func(context.Context, *models.Comment) error
	getByIDFn func(context.Context, uint) (*models.Comment, error)
	deleteFn  func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:  func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		deleteFn:  func(_ context.Context, _ uint) error { return nil },
	}
}

// imageStoreStub records stored and removed images.
type imageStoreStub struct {
	mu      sync.Mutex
	storeFn func(context.Context, []byte, string) (*storage.StoredImage, error)
	removed []string
}

func (s *imageStoreStub) Store(ctx context.Context, content []byte, declaredType string) (*storage.StoredImage, error) {
	return s.storeFn(ctx, content, declaredType)
}

func (s *imageStoreStub) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, name)
	return nil
}

func storedImage(name string) *storage.StoredImage {
	return &storage.StoredImage{
		StoredName:  name,
		URL:         storage.URLPrefix + name,
		Width:       10,
		Height:      10,
		ContentType: "image/jpeg",
		Data:        []byte{0xff, 0xd8, 0xff},
	}
}

type judgeStub struct {
	verdict models.Judgment
	calls   int
}

func (j *judgeStub) Score(_ context.Context, _ []byte, _ string) models.Judgment {
	j.calls++
	return j.verdict
}

// publisherStub captures published feed events.
type publisherStub struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *publisherStub) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return p.err
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeUnauthorized)
}
