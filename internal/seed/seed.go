package seed

import (
	"context"
	"fmt"
	"log"

	"splitboard/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers         int
	SplitsPerUser    int
	CommentsPerSplit int
	// MaxDays bounds how far back split timestamps are spread.
	MaxDays     int
	ShouldClean bool
	Password    string
	// FastHash uses the minimum bcrypt cost.
	FastHash   bool
	RandomSeed int64
}

// Summary counts what a seed run created.
type Summary struct {
	Users    int
	Splits   int
	Comments int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d splits, %d comments", s.Users, s.Splits, s.Comments)
}

// Seed fills the database with generated users, splits and comments.
func Seed(ctx context.Context, db *gorm.DB, images ImageStore, opts Options) (Summary, error) {
	var summary Summary

	if opts.ShouldClean {
		if err := Clean(ctx, db); err != nil {
			return summary, err
		}
	}

	f := NewFactory(db, images, opts)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return summary, fmt.Errorf("create user %d: %w", i+1, err)
		}
		users = append(users, u)
		summary.Users++
	}

	for _, u := range users {
		for j := 0; j < opts.SplitsPerUser; j++ {
			split, err := f.CreateSplit(ctx, u)
			if err != nil {
				return summary, fmt.Errorf("create split for %s: %w", u.Username, err)
			}
			summary.Splits++

			for k := 0; k < opts.CommentsPerSplit && len(users) > 0; k++ {
				author := users[f.faker.Number(0, len(users)-1)]
				if _, err := f.CreateComment(ctx, author, split); err != nil {
					return summary, fmt.Errorf("create comment on split %d: %w", split.ID, err)
				}
				summary.Comments++
			}
		}
	}

	log.Printf("Seeded %s", summary)
	return summary, nil
}

// Clean removes all comments, splits and users.
func Clean(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Comment{}, &models.Split{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clean %T: %w", model, err)
			}
		}
		return nil
	})
}
