// Package seed provides helpers to create demo data for development
// databases. Images go through the real ingestion pipeline so seeded splits
// look exactly like uploaded ones.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"time"

	"splitboard/internal/models"
	"splitboard/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is given to generated users.
const DefaultPassword = "slainte123"

// ImageStore persists normalized split photos.
type ImageStore interface {
	Store(ctx context.Context, content []byte, declaredType string) (*storage.StoredImage, error)
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	images ImageStore
	faker  *gofakeit.Faker
	opts   Options
	now    func() time.Time
}

// NewFactory creates a Factory bound to db. images may be nil, in which case
// splits get a placeholder URL instead of a stored photo.
func NewFactory(db *gorm.DB, images ImageStore, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, images: images, faker: gofakeit.New(seed), opts: opts, now: time.Now}
}

// CreateUser constructs and persists a user with a hashed password.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	first := f.faker.FirstName()
	username := handle(first) + fmt.Sprintf("%d", f.faker.Number(100, 9999))
	bio := f.faker.Sentence(8)

	password := DefaultPassword
	if f.opts.Password != "" {
		password = f.opts.Password
	}
	cost := bcrypt.DefaultCost
	if f.opts.FastHash {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:    username,
		DisplayName: first + " " + f.faker.LastName(),
		Email:       username + "@" + f.faker.DomainName(),
		Password:    string(hashed),
		Bio:         &bio,
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateSplit stores a generated pint photo and persists a judged split for
// user, backdated up to MaxDays.
func (f *Factory) CreateSplit(ctx context.Context, user *models.User, overrides ...func(*models.Split)) (*models.Split, error) {
	score := math.Round(f.faker.Float64Range(1, 10)*2) / 2

	split := &models.Split{
		UserID:     user.ID,
		Score:      score,
		Commentary: commentaryFor(score),
		CreatedAt:  f.backdate(),
	}
	if f.faker.Bool() {
		caption := f.faker.HipsterSentence(6)
		split.Caption = &caption
	}
	for _, override := range overrides {
		override(split)
	}

	if split.ImageURL == "" {
		url, err := f.storeImage(ctx, split.Score)
		if err != nil {
			return nil, err
		}
		split.ImageURL = url
	}

	if err := f.db.WithContext(ctx).Create(split).Error; err != nil {
		return nil, err
	}
	return split, nil
}

// CreateComment persists a short comment by author on split.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, split *models.Split) (*models.Comment, error) {
	comment := &models.Comment{
		UserID:    author.ID,
		SplitID:   split.ID,
		Content:   f.faker.RandomString(cheers),
		CreatedAt: split.CreatedAt.Add(time.Duration(f.faker.Number(1, 600)) * time.Minute),
	}
	if err := f.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// handle keeps the ASCII letters of name, lowercased.
func handle(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "drinker"
	}
	return b.String()
}

func (f *Factory) backdate() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 60
	}
	minutes := f.faker.Number(0, maxDays*24*60)
	return f.now().Add(-time.Duration(minutes) * time.Minute)
}

func (f *Factory) storeImage(ctx context.Context, score float64) (string, error) {
	if f.images == nil {
		return "/uploads/" + f.faker.UUID() + ".jpg", nil
	}
	content, err := PintImage(480, 640, score)
	if err != nil {
		return "", err
	}
	stored, err := f.images.Store(ctx, content, "image/png")
	if err != nil {
		return "", fmt.Errorf("store seed image: %w", err)
	}
	return stored.URL, nil
}

var cheers = []string{
	"Sláinte!",
	"Right on the G, fair play.",
	"That's a grand split.",
	"Bit low there, try again.",
	"The head on that is gorgeous.",
	"Pour another and show us.",
	"Absolute textbook.",
	"Nearly had it!",
}

func commentaryFor(score float64) string {
	switch {
	case score >= 9:
		return "Dead centre on the G. The bar staff are taking notes."
	case score >= 7:
		return "A fine split, only a whisker off the bar of the G."
	case score >= 4:
		return "Respectable effort, but the line's wandered off the G."
	default:
		return "That's more of a gulp than a split. Back to the bar with you."
	}
}

// PintImage draws a stylised pint of stout whose head line sits closer to
// the middle of the glass the higher score is.
func PintImage(w, h int, score float64) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	background := color.RGBA{R: 92, G: 64, B: 51, A: 255}
	stout := color.RGBA{R: 18, G: 12, B: 10, A: 255}
	head := color.RGBA{R: 238, G: 226, B: 200, A: 255}
	glass := color.RGBA{R: 210, G: 220, B: 225, A: 255}

	left, right := w/4, w*3/4
	top, bottom := h/8, h*7/8
	target := (top + bottom) / 2
	offset := int((10 - score) / 10 * float64(bottom-top) / 2)
	line := target - offset

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := background
			switch {
			case x < left || x >= right || y < top || y >= bottom:
			case x == left || x == right-1 || y == bottom-1:
				c = glass
			case y < line-h/40:
				c = glass
			case y < line:
				c = head
			default:
				c = stout
			}
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode pint image: %w", err)
	}
	return buf.Bytes(), nil
}
