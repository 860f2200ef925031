package testutil

import (
	"fmt"
	"strings"
	"testing"

	"splitboard/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens an isolated in-memory database with the schema migrated.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()[:8]
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&models.User{}, &models.Split{}, &models.Comment{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// CreateUser inserts a user with a unique handle derived from username.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:    username,
		DisplayName: strings.ToUpper(username[:1]) + username[1:],
		Email:       username + "@example.com",
		Password:    "hashed",
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateSplit inserts a judged split owned by user.
func CreateSplit(t testing.TB, db *gorm.DB, user *models.User, score float64, opts ...func(*models.Split)) *models.Split {
	t.Helper()
	s := &models.Split{
		UserID:     user.ID,
		ImageURL:   "/uploads/" + uuid.NewString() + ".jpg",
		Score:      score,
		Commentary: "Grand pour.",
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("create split: %v", err)
	}
	return s
}

// CreateComment inserts a comment by author on split.
func CreateComment(t testing.TB, db *gorm.DB, author *models.User, split *models.Split, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{UserID: author.ID, SplitID: split.ID, Content: content}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}
