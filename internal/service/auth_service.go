package service

import (
	"context"
	"strings"
	"time"

	"splitboard/internal/middleware"
	"splitboard/internal/models"
	"splitboard/internal/repository"
	"splitboard/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo   repository.UserRepository
	secret     string
	bcryptCost int
	now        func() time.Time
}

type RegisterInput struct {
	Email       string
	Password    string
	Username    string
	DisplayName string
}

type LoginInput struct {
	Email    string
	Password string
}

// Session is an issued bearer token and the account it belongs to.
type Session struct {
	Token string
	User  *models.User
}

func NewAuthService(userRepo repository.UserRepository, secret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		secret:     secret,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if email == "" || username == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	displayName, err := validation.NormalizeDisplayName(in.DisplayName, username)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User already exists")
	}
	existing, err = s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username is already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:    username,
		DisplayName: displayName,
		Email:       email,
		Password:    string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, err := middleware.IssueToken(middleware.Principal{UserID: user.ID, Username: user.Username}, s.secret, s.now())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{Token: token, User: user}, nil
}
