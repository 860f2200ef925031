package storage

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"splitboard/internal/config"
	"splitboard/internal/models"
	"splitboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngestor(t *testing.T, maxDimension int) *Ingestor {
	t.Helper()
	return NewIngestor(&config.Config{
		UploadDir:            filepath.Join(t.TempDir(), "nested", "uploads"),
		ImageMaxUploadSizeMB: 1,
		ImageMaxDimension:    maxDimension,
		ImageJPEGQuality:     85,
	})
}

func storedFiles(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func decodeStored(t *testing.T, root, name string) image.Config {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, name))
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	return cfg
}

func TestIngestor_StoreRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	ing := newTestIngestor(t, 64)
	png := testutil.TinyPNG(t, 8, 8)

	tests := []struct {
		name        string
		content     []byte
		contentType string
	}{
		{"gif not allowed", png, "image/gif"},
		{"text not allowed", []byte("hello"), "text/plain"},
		{"missing type", png, ""},
		{"empty payload", nil, "image/png"},
		{"too large", bytes.Repeat([]byte{0xff}, 1024*1024+1), "image/jpeg"},
		{"undecodable bytes", []byte("definitely not a png"), "image/png"},
		{"declared type mismatch", png, "image/jpeg"},
		{"corrupt heic", []byte("ftypheic-but-not-really"), "image/heic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ing.Store(context.Background(), tt.content, tt.contentType)
			require.Error(t, err)
			assert.True(t, models.HasCode(err, models.CodeValidation), "want validation error, got %v", err)
		})
	}
	assert.Empty(t, storedFiles(t, ing.Root()))
}

func TestIngestor_RejectsOversizedCanvasBeforeDecoding(t *testing.T) {
	t.Parallel()
	ing := newTestIngestor(t, 64)
	ing.maxPixels = 1000

	tests := []struct {
		name        string
		content     []byte
		contentType string
		wantErr     bool
	}{
		{"png over budget", testutil.TinyPNG(t, 40, 40), "image/png", true},
		{"jpeg over budget", testutil.TinyJPEG(t, 50, 21), "image/jpeg", true},
		{"exactly at budget", testutil.TinyPNG(t, 25, 40), "image/png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ing.Store(context.Background(), tt.content, tt.contentType)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, models.HasCode(err, models.CodeValidation), "want validation error, got %v", err)
			assert.Contains(t, err.Error(), "too large")
		})
	}
	assert.Len(t, storedFiles(t, ing.Root()), 1)
}

func TestIngestor_StoreDownscalesPreservingAspect(t *testing.T) {
	t.Parallel()
	ing := newTestIngestor(t, 64)

	stored, err := ing.Store(context.Background(), testutil.TinyPNG(t, 300, 150), "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(stored.StoredName, ".jpg"))
	assert.Equal(t, URLPrefix+stored.StoredName, stored.URL)
	assert.Equal(t, "image/jpeg", stored.ContentType)
	assert.Equal(t, 64, stored.Width)
	assert.Equal(t, 32, stored.Height)

	cfg := decodeStored(t, ing.Root(), stored.StoredName)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
	assert.Equal(t, []string{stored.StoredName}, storedFiles(t, ing.Root()))
}

func TestIngestor_StoreNeverUpscales(t *testing.T) {
	t.Parallel()
	ing := newTestIngestor(t, 64)

	stored, err := ing.Store(context.Background(), testutil.TinyJPEG(t, 40, 30), "image/jpeg; charset=binary")
	require.NoError(t, err)

	cfg := decodeStored(t, ing.Root(), stored.StoredName)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
}

func TestIngestor_OutputBoundedForManyShapes(t *testing.T) {
	t.Parallel()
	const maxDim = 48
	ing := newTestIngestor(t, maxDim)

	shapes := [][2]int{{1, 1}, {48, 48}, {49, 10}, {10, 49}, {200, 3}, {3, 200}, {97, 96}, {120, 120}}
	for _, sh := range shapes {
		stored, err := ing.Store(context.Background(), testutil.TinyPNG(t, sh[0], sh[1]), "image/png")
		require.NoError(t, err)

		cfg := decodeStored(t, ing.Root(), stored.StoredName)
		assert.LessOrEqual(t, cfg.Width, maxDim, "shape %v", sh)
		assert.LessOrEqual(t, cfg.Height, maxDim, "shape %v", sh)
		assert.LessOrEqual(t, cfg.Width, sh[0], "shape %v upscaled", sh)
		assert.LessOrEqual(t, cfg.Height, sh[1], "shape %v upscaled", sh)
	}
	assert.Len(t, storedFiles(t, ing.Root()), len(shapes))
}

func TestIngestor_DefaultBoundIs1920(t *testing.T) {
	t.Parallel()
	ing := NewIngestor(&config.Config{UploadDir: t.TempDir()})

	stored, err := ing.Store(context.Background(), testutil.TinyPNG(t, 2400, 1200), "image/png")
	require.NoError(t, err)
	assert.Equal(t, 1920, stored.Width)
	assert.Equal(t, 960, stored.Height)
}

func TestIngestor_WritesProgressiveJPEG(t *testing.T) {
	t.Parallel()
	ing := newTestIngestor(t, 64)

	stored, err := ing.Store(context.Background(), testutil.TinyPNG(t, 32, 32), "image/png")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(ing.Root(), stored.StoredName))
	require.NoError(t, err)
	assert.Equal(t, stored.Data, data)
	// SOF2 marks a progressive DCT frame.
	assert.True(t, bytes.Contains(data, []byte{0xFF, 0xC2}), "expected SOF2 marker")
}

func TestIngestor_AcceptsWebP(t *testing.T) {
	t.Parallel()
	ing := newTestIngestor(t, 64)

	stored, err := ing.Store(context.Background(), testutil.TinyWebP(t, 128, 64), "image/webp")
	require.NoError(t, err)
	assert.Equal(t, 64, stored.Width)
	assert.Equal(t, 32, stored.Height)
}

func TestIngestor_UniqueNames(t *testing.T) {
	t.Parallel()
	ing := newTestIngestor(t, 64)
	payload := testutil.TinyPNG(t, 16, 16)

	first, err := ing.Store(context.Background(), payload, "image/png")
	require.NoError(t, err)
	second, err := ing.Store(context.Background(), payload, "image/png")
	require.NoError(t, err)

	assert.NotEqual(t, first.StoredName, second.StoredName)
	assert.Len(t, storedFiles(t, ing.Root()), 2)
}

func TestIngestor_CanceledContextWritesNothing(t *testing.T) {
	t.Parallel()
	ing := NewIngestor(&config.Config{UploadDir: t.TempDir(), ImageEncodeConcurrency: 1})
	// Hold the only encode slot so Store has to wait on the context.
	require.NoError(t, ing.encodeSlots.Acquire(context.Background(), 1))
	defer ing.encodeSlots.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ing.Store(ctx, testutil.TinyPNG(t, 8, 8), "image/png")
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeIngestion))
	assert.Empty(t, storedFiles(t, ing.Root()))
}

func TestIngestor_Remove(t *testing.T) {
	t.Parallel()
	ing := newTestIngestor(t, 64)

	stored, err := ing.Store(context.Background(), testutil.TinyPNG(t, 8, 8), "image/png")
	require.NoError(t, err)

	require.NoError(t, ing.Remove(stored.URL))
	assert.Empty(t, storedFiles(t, ing.Root()))
	assert.NoError(t, ing.Remove(stored.StoredName), "removing a missing file is a no-op")
	assert.Error(t, ing.Remove(".."))
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, writeFileAtomic(dir, "x.jpg", []byte("data")))
	assert.Equal(t, []string{"x.jpg"}, storedFiles(t, dir))
}
