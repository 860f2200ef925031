package service

import (
	"context"
	"strings"
	"testing"

	"splitboard/internal/middleware"
	"splitboard/internal/models"
	"splitboard/internal/repository"
	"splitboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func newAuthService(repo repository.UserRepository) *AuthService {
	svc := NewAuthService(repo, testSecret)
	svc.bcryptCost = bcrypt.MinCost
	return svc
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()

	svc := newAuthService(noopUserRepo())
	valid := RegisterInput{Email: "a@example.com", Password: "pint4life", Username: "aoife"}

	cases := map[string]func(*RegisterInput){
		"missing email":  func(in *RegisterInput) { in.Email = "" },
		"bad email":      func(in *RegisterInput) { in.Email = "not-an-email" },
		"bad username":   func(in *RegisterInput) { in.Username = "a!" },
		"weak password":  func(in *RegisterInput) { in.Password = "short" },
		"long display":   func(in *RegisterInput) { in.DisplayName = strings.Repeat("d", 61) },
		"no letter pass": func(in *RegisterInput) { in.Password = "1234567890" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			in := valid
			mutate(&in)
			_, err := svc.Register(context.Background(), in)
			assertValidationError(t, err)
		})
	}
}

func TestAuthService_Register_Conflicts(t *testing.T) {
	t.Parallel()

	byEmail := noopUserRepo()
	byEmail.getByEmailFn = func(_ context.Context, _ string) (*models.User, error) { return &models.User{ID: 1}, nil }
	_, err := newAuthService(byEmail).Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "pint4life", Username: "aoife"})
	assertAppError(t, err, models.CodeConflict)

	byName := noopUserRepo()
	byName.getByUsernameFn = func(_ context.Context, _ string) (*models.User, error) { return &models.User{ID: 1}, nil }
	_, err = newAuthService(byName).Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "pint4life", Username: "aoife"})
	assertAppError(t, err, models.CodeConflict)
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc := newAuthService(repository.NewUserRepository(db))
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{
		Email:    " Aoife@Example.com ",
		Password: "pint4life",
		Username: "aoife",
	})
	require.NoError(t, err)
	assert.Equal(t, "aoife@example.com", session.User.Email)
	assert.Equal(t, "aoife", session.User.DisplayName)
	assert.NotEqual(t, "pint4life", session.User.Password)

	p, err := middleware.ParseToken(session.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, middleware.Principal{UserID: session.User.ID, Username: "aoife"}, p)

	login, err := svc.Login(ctx, LoginInput{Email: "aoife@example.com", Password: "pint4life"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginInput{Email: "aoife@example.com", Password: "wrong-pass1"})
	assertUnauthorizedError(t, err)
	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "pint4life"})
	assertUnauthorizedError(t, err)
	_, err = svc.Login(ctx, LoginInput{Email: "", Password: ""})
	assertValidationError(t, err)
}
