package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"splitboard/internal/models"
	"splitboard/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixture is a hand-written data set, typically loaded from YAML:
//
//	users:
//	  - username: siobhan
//	    displayName: Siobhán
//	    splits:
//	      - score: 9.5
//	        commentary: Dead on the G.
//	        daysAgo: 3
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
}

// FixtureUser is one account and its splits.
type FixtureUser struct {
	Username    string         `yaml:"username"`
	DisplayName string         `yaml:"displayName"`
	Email       string         `yaml:"email"`
	Password    string         `yaml:"password"`
	Bio         string         `yaml:"bio"`
	Splits      []FixtureSplit `yaml:"splits"`
}

// FixtureSplit is one judged split. DaysAgo backdates it relative to the
// time the fixture is applied.
type FixtureSplit struct {
	Score      float64  `yaml:"score"`
	Commentary string   `yaml:"commentary"`
	Caption    string   `yaml:"caption"`
	DaysAgo    float64  `yaml:"daysAgo"`
	Comments   []string `yaml:"comments"`
}

// LoadFixture decodes and validates a YAML fixture.
func LoadFixture(r io.Reader) (*Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// LoadFixtureFile reads a fixture from path.
func LoadFixtureFile(path string) (*Fixture, error) {
	f, err := os.Open(path) // #nosec G304: operator supplied path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadFixture(f)
}

func (fx *Fixture) validate() error {
	seen := make(map[string]bool, len(fx.Users))
	for i, u := range fx.Users {
		if err := validation.ValidateUsername(u.Username); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
		key := strings.ToLower(u.Username)
		if seen[key] {
			return fmt.Errorf("users[%d]: duplicate username %q", i, u.Username)
		}
		seen[key] = true
		for j, s := range u.Splits {
			if s.Score < 1 || s.Score > 10 {
				return fmt.Errorf("users[%d].splits[%d]: score %v outside 1-10", i, j, s.Score)
			}
			if strings.TrimSpace(s.Commentary) == "" {
				return fmt.Errorf("users[%d].splits[%d]: commentary is required", i, j)
			}
			if s.DaysAgo < 0 {
				return fmt.Errorf("users[%d].splits[%d]: daysAgo cannot be negative", i, j)
			}
		}
	}
	return nil
}

// Apply inserts the fixture. Comments are attributed round-robin to the
// fixture's users.
func (fx *Fixture) Apply(ctx context.Context, db *gorm.DB, images ImageStore, opts Options) (Summary, error) {
	var summary Summary
	f := NewFactory(db, images, opts)
	now := f.now()

	users := make([]*models.User, 0, len(fx.Users))
	for _, fu := range fx.Users {
		fu := fu
		displayName, err := validation.NormalizeDisplayName(fu.DisplayName, fu.Username)
		if err != nil {
			return summary, fmt.Errorf("user %s: %w", fu.Username, err)
		}
		u, err := f.CreateUser(ctx, func(u *models.User) {
			u.Username = fu.Username
			u.DisplayName = displayName
			u.Email = fu.Username + "@splitboard.local"
			if fu.Email != "" {
				u.Email = strings.ToLower(strings.TrimSpace(fu.Email))
			}
			u.Bio = nil
			if fu.Bio != "" {
				u.Bio = &fu.Bio
			}
		})
		if err != nil {
			return summary, fmt.Errorf("create user %s: %w", fu.Username, err)
		}
		users = append(users, u)
		summary.Users++
	}

	next := 0
	for i, fu := range fx.Users {
		for _, fs := range fu.Splits {
			fs := fs
			split, err := f.CreateSplit(ctx, users[i], func(s *models.Split) {
				s.Score = fs.Score
				s.Commentary = strings.TrimSpace(fs.Commentary)
				s.CreatedAt = now.Add(-time.Duration(fs.DaysAgo * float64(24*time.Hour)))
				s.Caption = nil
				if fs.Caption != "" {
					s.Caption = &fs.Caption
				}
			})
			if err != nil {
				return summary, fmt.Errorf("create split for %s: %w", fu.Username, err)
			}
			summary.Splits++

			for _, content := range fs.Comments {
				author := users[next%len(users)]
				next++
				c := &models.Comment{UserID: author.ID, SplitID: split.ID, Content: content}
				if err := db.WithContext(ctx).Create(c).Error; err != nil {
					return summary, fmt.Errorf("create comment: %w", err)
				}
				summary.Comments++
			}
		}
	}
	return summary, nil
}
