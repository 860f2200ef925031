package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"splitboard/internal/models"
	"splitboard/internal/testutil"
)

const sampleFixture = `
users:
  - username: siobhan
    displayName: Siobhán
    splits:
      - score: 9.5
        commentary: Dead on the G.
        caption: First try
        daysAgo: 3
        comments: ["Fair play", "Sláinte"]
      - score: 4
        commentary: Bit of a gulp.
        daysAgo: 40
  - username: cormac
    splits:
      - score: 7
        commentary: Close enough.
        daysAgo: 10
`

func TestLoadFixture_Apply(t *testing.T) {
	fx, err := LoadFixture(strings.NewReader(sampleFixture))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	db := testutil.NewSQLiteDB(t)
	summary, err := fx.Apply(context.Background(), db, nil, Options{FastHash: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if summary.Users != 2 || summary.Splits != 3 || summary.Comments != 2 {
		t.Fatalf("unexpected summary: %s", summary)
	}

	var cormac models.User
	if err := db.Where("username = ?", "cormac").First(&cormac).Error; err != nil {
		t.Fatalf("load cormac: %v", err)
	}
	if cormac.DisplayName != "cormac" {
		t.Fatalf("display name should default to the username, got %q", cormac.DisplayName)
	}

	var old models.Split
	if err := db.Where("score = ?", 4).First(&old).Error; err != nil {
		t.Fatalf("load split: %v", err)
	}
	if age := time.Since(old.CreatedAt); age < 39*24*time.Hour || age > 41*24*time.Hour {
		t.Fatalf("split not backdated: age %v", age)
	}
	if old.Caption != nil {
		t.Fatalf("caption should be empty, got %q", *old.Caption)
	}
}

func TestLoadFixture_Rejects(t *testing.T) {
	tests := map[string]string{
		"bad score":        "users:\n  - username: aoife\n    splits:\n      - score: 11\n        commentary: wow\n",
		"no commentary":    "users:\n  - username: aoife\n    splits:\n      - score: 5\n",
		"bad username":     "users:\n  - username: a\n",
		"duplicate user":   "users:\n  - username: aoife\n  - username: Aoife\n",
		"unknown field":    "users:\n  - username: aoife\n    rating: 5\n",
		"negative daysAgo": "users:\n  - username: aoife\n    splits:\n      - score: 5\n        commentary: ok\n        daysAgo: -1\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFixture(strings.NewReader(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
