package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"splitboard/internal/config"
	"splitboard/internal/middleware"
	"splitboard/internal/models"
	"splitboard/internal/ratelimit"
	"splitboard/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type judgeReply string

func (r judgeReply) Judge(context.Context, []byte, string, string) (string, error) {
	return string(r), nil
}

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	redis  *redis.Client
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Env:                    "test",
		Port:                   "0",
		JWTSecret:              testSecret,
		UploadDir:              t.TempDir(),
		ImageMaxUploadSizeMB:   10,
		ImageMaxDimension:      1920,
		ImageJPEGQuality:       85,
		ImageEncodeConcurrency: 2,
		RateLimitEnabled:       true,
		JudgeTimeoutSeconds:    5,
	}

	s, err := NewServerWithDeps(cfg, db, rdb, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.feedHub.Shutdown(context.Background())
		_ = rdb.Close()
	})

	return &testEnv{server: s, app: s.App(), db: db, redis: rdb}
}

func bearer(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := middleware.IssueToken(middleware.Principal{UserID: u.ID, Username: u.Username}, testSecret, time.Now())
	require.NoError(t, err)
	return "Bearer " + token
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func jsonRequest(method, target, auth string, payload any) *http.Request {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func uploadRequest(t *testing.T, auth, contentType string, image []byte, caption string) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="pint"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)

	if caption != "" {
		require.NoError(t, w.WriteField("caption", caption))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/splits/upload", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestHealth_Live(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", decode[map[string]any](t, body)["status"])
}

func TestHealth_ReadyOnSQLite(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadSplit_RoundTrip(t *testing.T) {
	env := newTestEnv(t, WithJudgeClient(judgeReply(`{"rating": 8.5, "feedback": "Right on the bar of the G."}`)))
	owner := testutil.CreateUser(t, env.db, "siobhan")

	resp, body := env.do(t, uploadRequest(t, bearer(t, owner), "image/png", testutil.TinyPNG(t, 64, 48), "Great craic!"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[UploadSplitResponse](t, body)
	assert.Equal(t, "Split uploaded successfully", created.Message)
	assert.True(t, strings.HasPrefix(created.Split.ImageURL, "/uploads/"))
	assert.True(t, strings.HasSuffix(created.Split.ImageURL, ".jpg"))

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/splits/%d", created.Split.ID), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[SplitEnvelope](t, body).Split

	require.NotNil(t, got.Caption)
	assert.Equal(t, "Great craic!", *got.Caption)
	assert.Equal(t, 8.5, got.Score)
	assert.Equal(t, "Right on the bar of the G.", got.Commentary)
	assert.Equal(t, owner.ID, got.UserID)
	assert.Equal(t, "siobhan", got.User.Username)
	assert.Equal(t, created.Split.ImageURL, got.ImageURL)
	assert.Empty(t, got.Comments)

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, got.ImageURL, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, uploadCacheControl, resp.Header.Get("Cache-Control"))
	assert.Equal(t, []byte{0xFF, 0xD8}, body[:2])
}

func TestUploadSplit_JudgeFailureUsesFallback(t *testing.T) {
	env := newTestEnv(t, WithJudgeClient(judgeReply("I'd give it a solid eight")))
	owner := testutil.CreateUser(t, env.db, "niall")

	resp, body := env.do(t, uploadRequest(t, bearer(t, owner), "image/jpeg", testutil.TinyJPEG(t, 32, 32), ""))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[UploadSplitResponse](t, body)
	assert.Equal(t, 5.0, created.Split.Score)
	assert.Nil(t, created.Split.Caption)
}

func TestUploadSplit_Rejections(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "aoife")

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
	}{
		{"anonymous", uploadRequest(t, "", "image/png", testutil.TinyPNG(t, 8, 8), ""), http.StatusUnauthorized},
		{"unsupported type", uploadRequest(t, bearer(t, owner), "image/gif", []byte("GIF89a"), ""), http.StatusBadRequest},
		{"not an image", uploadRequest(t, bearer(t, owner), "image/png", []byte("definitely not a png"), ""), http.StatusBadRequest},
		{"caption too long", uploadRequest(t, bearer(t, owner), "image/png", testutil.TinyPNG(t, 8, 8), strings.Repeat("g", 501)), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, tt.req)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, string(body))
		})
	}

	entries, err := os.ReadDir(env.server.ingestor.Root())
	if err == nil {
		assert.Empty(t, entries)
	}
	var count int64
	require.NoError(t, env.db.Model(&models.Split{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListSplits(t *testing.T) {
	env := newTestEnv(t)
	a := testutil.CreateUser(t, env.db, "ciara")
	b := testutil.CreateUser(t, env.db, "darragh")
	testutil.CreateSplit(t, env.db, a, 6)
	testutil.CreateSplit(t, env.db, a, 9)
	testutil.CreateSplit(t, env.db, b, 7)

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/splits?sort=highest-rated&limit=2", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[SplitListResponse](t, body)
	require.Len(t, page.Splits, 2)
	assert.Equal(t, 9.0, page.Splits[0].Score)
	assert.Equal(t, 7.0, page.Splits[1].Score)
	assert.Equal(t, PaginationResponse{Total: 3, Limit: 2, Offset: 0, HasMore: true}, page.Pagination)

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/splits?userId=%d", b.ID), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[SplitListResponse](t, body)
	require.Len(t, page.Splits, 1)
	assert.Equal(t, "darragh", page.Splits[0].User.Username)

	resp, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/splits?userId=abc", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetSplit_NotFound(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/splits/404", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, body).Code)
}

func TestComments_CreateAndDeletePermissions(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "owner")
	author := testutil.CreateUser(t, env.db, "author")
	stranger := testutil.CreateUser(t, env.db, "stranger")
	split := testutil.CreateSplit(t, env.db, owner, 8)

	post := func(u *models.User, content string) CommentResponse {
		resp, body := env.do(t, jsonRequest(http.MethodPost, "/api/comments", bearer(t, u),
			CreateCommentRequest{SplitID: split.ID, Content: content}))
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
		return decode[CommentCreatedResponse](t, body).Comment
	}
	del := func(u *models.User, id uint) int {
		resp, _ := env.do(t, jsonRequest(http.MethodDelete, fmt.Sprintf("/api/comments/%d", id), bearer(t, u), nil))
		return resp.StatusCode
	}

	first := post(author, "  Sláinte!  ")
	assert.Equal(t, "Sláinte!", first.Content)
	assert.True(t, first.CanDelete)
	second := post(author, "Again!")

	// canDelete is computed for the viewer.
	resp, body := env.do(t, jsonRequest(http.MethodGet, fmt.Sprintf("/api/splits/%d", split.ID), bearer(t, stranger), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, c := range decode[SplitEnvelope](t, body).Split.Comments {
		assert.False(t, c.CanDelete)
	}

	assert.Equal(t, http.StatusForbidden, del(stranger, first.ID))
	assert.Equal(t, http.StatusOK, del(author, first.ID))
	assert.Equal(t, http.StatusOK, del(owner, second.ID))
	assert.Equal(t, http.StatusNotFound, del(owner, second.ID))

	resp, _ = env.do(t, jsonRequest(http.MethodPost, "/api/comments", "",
		CreateCommentRequest{SplitID: split.ID, Content: "anon"}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, jsonRequest(http.MethodPost, "/api/comments", bearer(t, author),
		CreateCommentRequest{SplitID: split.ID + 100, Content: "lost"}))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, jsonRequest(http.MethodPost, "/api/comments", bearer(t, author),
		CreateCommentRequest{SplitID: split.ID, Content: "   "}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestComments_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "chatty")
	split := testutil.CreateSplit(t, env.db, u, 7)

	var last *http.Response
	for i := 0; i < 11; i++ {
		last, _ = env.do(t, jsonRequest(http.MethodPost, "/api/comments", bearer(t, u),
			CreateCommentRequest{SplitID: split.ID, Content: fmt.Sprintf("comment %d", i)}))
		if i < 10 {
			require.Equal(t, http.StatusCreated, last.StatusCode)
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	assert.NotEmpty(t, last.Header.Get("Retry-After"))
}

// exhaustedLimiter rejects every check.
type exhaustedLimiter struct{ retryAfter time.Duration }

func (l exhaustedLimiter) Check(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: false, RetryAfter: l.retryAfter}, nil
}

func TestUploadSplit_RateLimitedBeforeIngestion(t *testing.T) {
	var policies []string
	env := newTestEnv(t, WithLimiterFactory(func(p ratelimit.Policy) ratelimit.Limiter {
		policies = append(policies, p.Name)
		if p.Name == ratelimit.Uploads.Name {
			return exhaustedLimiter{retryAfter: 3 * time.Hour}
		}
		return ratelimit.Unlimited{}
	}))
	assert.ElementsMatch(t, []string{"comments", "uploads", "auth"}, policies)

	owner := testutil.CreateUser(t, env.db, "ronan")
	resp, body := env.do(t, uploadRequest(t, bearer(t, owner), "image/png", testutil.TinyPNG(t, 16, 16), ""))
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode, string(body))
	assert.Equal(t, "10800", resp.Header.Get("Retry-After"))
	assert.Equal(t, models.CodeRateLimited, decode[models.ErrorResponse](t, body).Code)

	entries, err := os.ReadDir(env.server.config.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Other policies came from the same factory and still admit.
	split := testutil.CreateSplit(t, env.db, owner, 7)
	resp, body = env.do(t, jsonRequest(http.MethodPost, "/api/comments", bearer(t, owner),
		CreateCommentRequest{SplitID: split.ID, Content: "Sound."}))
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
}

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	a := testutil.CreateUser(t, env.db, "aidan")
	b := testutil.CreateUser(t, env.db, "brid")
	testutil.CreateSplit(t, env.db, a, 9)
	testutil.CreateSplit(t, env.db, b, 6)

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/leaderboard?type=highest-single&userId=%d", b.ID), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	board := decode[LeaderboardResponse](t, body)
	assert.Equal(t, "highest-single", board.Type)
	assert.Equal(t, "all-time", board.Timeframe)
	require.Len(t, board.Leaderboard, 2)
	assert.Equal(t, 1, board.Leaderboard[0].Rank)
	assert.Equal(t, "aidan", board.Leaderboard[0].Username)
	require.NotNil(t, board.UserRank)
	assert.Equal(t, b.ID, board.UserRank.UserID)

	// A signed-in caller cannot look up someone else's rank.
	resp, body = env.do(t, jsonRequest(http.MethodGet, fmt.Sprintf("/api/leaderboard?type=highest-single&userId=%d", b.ID), bearer(t, a), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	board = decode[LeaderboardResponse](t, body)
	require.NotNil(t, board.UserRank)
	assert.Equal(t, a.ID, board.UserRank.UserID)

	resp, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/leaderboard?type=fastest", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUserProfile(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "fionn")
	testutil.CreateSplit(t, env.db, u, 4)
	best := testutil.CreateSplit(t, env.db, u, 8)

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/users/fionn", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[ProfileResponse](t, body)
	assert.Equal(t, "fionn", profile.User.Username)
	assert.Equal(t, int64(2), profile.Stats.TotalSplits)
	assert.InDelta(t, 6.0, profile.Stats.AverageRating, 1e-9)
	require.NotNil(t, profile.Stats.BestSplit)
	assert.Equal(t, best.ID, profile.Stats.BestSplit.ID)
	assert.Len(t, profile.Splits, 2)
	assert.NotContains(t, string(body), "example.com")

	resp, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/users/nobody", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuth_RegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, jsonRequest(http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email: "Maeve@Example.com", Password: "guinness1759", Username: "maeve",
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	registered := decode[SessionResponse](t, body)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "maeve", registered.User.DisplayName)

	resp, _ = env.do(t, jsonRequest(http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email: "maeve@example.com", Password: "guinness1759", Username: "maeve2",
	}))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.do(t, jsonRequest(http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "maeve@example.com", Password: "wrong-pass1",
	}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = env.do(t, jsonRequest(http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "maeve@example.com", Password: "guinness1759",
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := decode[SessionResponse](t, body)

	resp, body = env.do(t, jsonRequest(http.MethodGet, "/api/auth/me", "Bearer "+session.Token, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, registered.User.ID, decode[UserEnvelope](t, body).User.ID)

	resp, _ = env.do(t, jsonRequest(http.MethodGet, "/api/auth/me", "", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeUpload(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.server.ingestor.Root(), "pint.webp"), []byte("RIFF"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(env.server.ingestor.Root(), ".env"), []byte("SECRET"), 0o600))

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/uploads/pint.webp", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/webp", resp.Header.Get("Content-Type"))
	assert.Equal(t, "RIFF", string(body))

	for _, name := range []string{".env", "missing.jpg", "..%2F..%2Fetc%2Fpasswd"} {
		resp, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/uploads/"+name, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, name)
	}
}

func TestFeed_RequiresUpgrade(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/api/ws/feed", nil))
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
