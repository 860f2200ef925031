// Package storage normalizes uploaded split photos and serves the stored files.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"splitboard/internal/config"
	"splitboard/internal/models"
	"splitboard/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	"github.com/jdeng/goheif"
	"github.com/pixiv/go-libjpeg/jpeg"
	"go.opentelemetry.io/otel/attribute"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultUploadDir            = "./public/uploads"
	DefaultImageMaxUploadSizeMB = 10
	DefaultMaxDimension         = 1920
	DefaultJPEGQuality          = 85
	// DefaultMaxPixels bounds width×height before any pixel data is decoded.
	DefaultMaxPixels = 8192 * 8192

	// URLPrefix is the public namespace stored images are served under.
	URLPrefix = "/uploads/"
)

// StoredImage describes a normalized image written to the upload root.
type StoredImage struct {
	StoredName  string
	URL         string
	Width       int
	Height      int
	ContentType string
	// Data holds the encoded JPEG that was written.
	Data []byte
}

// Ingestor validates, normalizes and durably stores uploaded images.
type Ingestor struct {
	root               string
	maxUploadSizeBytes int64
	maxDimension       int
	quality            int
	maxPixels          int64
	encodeSlots        *semaphore.Weighted
}

// NewIngestor builds an Ingestor from configuration. A nil config yields defaults.
func NewIngestor(cfg *config.Config) *Ingestor {
	root := DefaultUploadDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	maxDimension := DefaultMaxDimension
	quality := DefaultJPEGQuality
	slots := runtime.GOMAXPROCS(0)

	if cfg != nil {
		if cfg.UploadDir != "" {
			root = cfg.UploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
		if cfg.ImageMaxDimension > 0 {
			maxDimension = cfg.ImageMaxDimension
		}
		if cfg.ImageJPEGQuality > 0 {
			quality = cfg.ImageJPEGQuality
		}
		if cfg.ImageEncodeConcurrency > 0 {
			slots = cfg.ImageEncodeConcurrency
		}
	}

	return &Ingestor{
		root:               root,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		maxDimension:       maxDimension,
		quality:            quality,
		maxPixels:          DefaultMaxPixels,
		encodeSlots:        semaphore.NewWeighted(int64(slots)),
	}
}

// Root returns the directory stored images are written to.
func (s *Ingestor) Root() string {
	return s.root
}

// MaxUploadSizeBytes returns the largest accepted payload.
func (s *Ingestor) MaxUploadSizeBytes() int64 {
	return s.maxUploadSizeBytes
}

// Store validates content against declaredType, normalizes it to a
// progressive JPEG bounded by the configured dimension and writes it under a
// fresh unique name. Exactly one file is created on success and none on failure.
func (s *Ingestor) Store(ctx context.Context, content []byte, declaredType string) (*StoredImage, error) {
	span, ctx := observability.NewSpan(ctx, "storage.ingest")
	defer span.End()
	start := time.Now()

	stored, err := s.store(ctx, content, declaredType)
	switch {
	case err == nil:
		observability.ImageIngestTotal.WithLabelValues("stored").Inc()
		observability.ImageIngestDuration.Observe(time.Since(start).Seconds())
		span.AddAttributes(
			attribute.String("image.name", stored.StoredName),
			attribute.Int("image.width", stored.Width),
			attribute.Int("image.height", stored.Height),
		)
	case models.HasCode(err, models.CodeValidation):
		observability.ImageIngestTotal.WithLabelValues("rejected").Inc()
	default:
		observability.ImageIngestTotal.WithLabelValues("failed").Inc()
		span.SetError(err)
	}
	return stored, err
}

func (s *Ingestor) store(ctx context.Context, content []byte, declaredType string) (*StoredImage, error) {
	mediaType := normalizeContentType(declaredType)
	if !IsAllowedType(mediaType) {
		return nil, models.NewValidationError("Invalid file type. Only JPEG, PNG, WebP, and HEIC are allowed.")
	}
	if len(content) == 0 {
		return nil, models.NewValidationError("No image provided")
	}
	if int64(len(content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large. Maximum size is %dMB.", s.maxUploadSizeBytes/(1024*1024)))
	}

	if err := s.encodeSlots.Acquire(ctx, 1); err != nil {
		return nil, models.NewIngestionError(err)
	}
	defer s.encodeSlots.Release(1)

	decoded, err := decode(content, mediaType, s.maxPixels)
	if err != nil {
		return nil, err
	}

	normalized := resizeToFit(flatten(decoded), s.maxDimension, s.maxDimension)
	encoded, err := encodeProgressiveJPEG(normalized, s.quality)
	if err != nil {
		return nil, models.NewIngestionError(err)
	}

	name := uuid.NewString() + ".jpg"
	if err := writeFileAtomic(s.root, name, encoded); err != nil {
		return nil, models.NewIngestionError(err)
	}

	b := normalized.Bounds()
	return &StoredImage{
		StoredName:  name,
		URL:         URLPrefix + name,
		Width:       b.Dx(),
		Height:      b.Dy(),
		ContentType: "image/jpeg",
		Data:        encoded,
	}, nil
}

// Remove deletes a previously stored image by name or URL. Missing files are ignored.
func (s *Ingestor) Remove(nameOrURL string) error {
	name := path.Base(strings.TrimPrefix(nameOrURL, URLPrefix))
	if !isSafeName(name) {
		return models.NewValidationError("invalid stored image name")
	}
	if err := os.Remove(filepath.Join(s.root, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// IsAllowedType reports whether a normalized media type is accepted for upload.
func IsAllowedType(mediaType string) bool {
	switch mediaType {
	case "image/jpeg", "image/jpg", "image/png", "image/webp", "image/heic", "image/heif":
		return true
	default:
		return false
	}
}

func decode(content []byte, mediaType string, maxPixels int64) (image.Image, error) {
	if mediaType == "image/heic" || mediaType == "image/heif" {
		return decodeHEIC(content, maxPixels)
	}

	detected := normalizeContentType(http.DetectContentType(content))
	if strings.HasPrefix(detected, "image/") && !isMatchingContentType(mediaType, detected) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	var (
		cfg image.Config
		err error
	)
	if mediaType == "image/webp" {
		cfg, err = webp.DecodeConfig(bytes.NewReader(content))
	} else {
		cfg, _, err = image.DecodeConfig(bytes.NewReader(content))
	}
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if err := checkPixels(cfg, maxPixels); err != nil {
		return nil, err
	}

	var img image.Image
	if mediaType == "image/webp" {
		img, err = webp.Decode(bytes.NewReader(content))
	} else {
		img, _, err = image.Decode(bytes.NewReader(content))
	}
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	return img, nil
}

// checkPixels rejects headers whose canvas would exceed maxPixels once decoded.
func checkPixels(cfg image.Config, maxPixels int64) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return models.NewValidationError("Invalid image file")
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return models.NewValidationError(fmt.Sprintf("Image dimensions %dx%d are too large", cfg.Width, cfg.Height))
	}
	return nil
}

// decodeHEIC guards the HEIF parser, which can panic on truncated containers.
func decodeHEIC(content []byte, maxPixels int64) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, models.NewValidationError("Invalid image file")
		}
	}()
	cfg, err := goheif.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if err := checkPixels(cfg, maxPixels); err != nil {
		return nil, err
	}
	img, err = goheif.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	return img, nil
}

// flatten composites images with alpha onto white, since JPEG has no alpha channel.
func flatten(src image.Image) image.Image {
	switch src.(type) {
	case *image.YCbCr, *image.Gray:
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	// Integer math keeps the bounded side exact; the other side is rounded.
	var newW, newH int
	if w*maxHeight >= h*maxWidth {
		newW = maxWidth
		newH = (h*maxWidth + w/2) / w
	} else {
		newH = maxHeight
		newW = (w*maxHeight + h/2) / h
	}
	newW = min(max(newW, 1), maxWidth)
	newH = min(max(newH, 1), maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}

func encodeProgressiveJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.EncoderOptions{
		Quality:         quality,
		OptimizeCoding:  true,
		ProgressiveMode: true,
	}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a temp file in dir and renames it into place,
// so a crash or write error never leaves a partial file under name.
func writeFileAtomic(dir, name string, data []byte) (err error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".ingest-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, name))
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	if provided == detected {
		return true
	}
	return (provided == "image/jpg" && detected == "image/jpeg") || (provided == "image/jpeg" && detected == "image/jpg")
}
