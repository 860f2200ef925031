package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"splitboard/internal/models"
)

// NormalizeCaption trims an optional caption. Blank captions become nil.
func NormalizeCaption(caption *string) (*string, error) {
	if caption == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*caption)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > models.MaxCaptionLength {
		return nil, fmt.Errorf("caption must be at most %d characters", models.MaxCaptionLength)
	}
	return &trimmed, nil
}

// NormalizeCommentContent trims comment content and enforces 1..500 characters.
func NormalizeCommentContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", errors.New("comment content is required")
	}
	if utf8.RuneCountInString(trimmed) > models.MaxCommentLength {
		return "", fmt.Errorf("comment must be at most %d characters", models.MaxCommentLength)
	}
	return trimmed, nil
}
