package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"splitboard/internal/models"
)

// DefaultContentType is served for unknown extensions.
const DefaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ContentTypeFor maps a stored file name to its served content type.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return DefaultContentType
}

// Open resolves a public file name inside root. Names that could escape the
// root are reported as not found.
func Open(root, name string) (*os.File, os.FileInfo, string, error) {
	if !isSafeName(name) {
		return nil, nil, "", models.NewNotFoundError("Image", name)
	}

	f, err := os.Open(filepath.Join(root, name)) // #nosec G304: name is a single validated path element
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, "", models.NewNotFoundError("Image", name)
		}
		return nil, nil, "", models.NewInternalError(err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, "", models.NewInternalError(err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, "", models.NewNotFoundError("Image", name)
	}
	return f, info, ContentTypeFor(name), nil
}

func isSafeName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
