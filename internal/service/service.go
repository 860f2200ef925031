// Package service holds the application's use cases. Services validate
// input, enforce ownership and coordinate repositories, storage, the judge
// and the live feed.
package service

import (
	"context"

	"splitboard/internal/models"
	"splitboard/internal/storage"
)

// ImageStore persists normalized uploads.
type ImageStore interface {
	Store(ctx context.Context, content []byte, declaredType string) (*storage.StoredImage, error)
	Remove(nameOrURL string) error
}

// Judge rates a split photo. Implementations never fail; they fall back to
// a fixed verdict instead.
type Judge interface {
	Score(ctx context.Context, image []byte, mediaType string) models.Judgment
}

// EventPublisher fans domain events out to live feed subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }

// CanDeleteComment reports whether requesterID may delete comment on split:
// the comment's author and the split's owner both may.
func CanDeleteComment(requesterID uint, comment *models.Comment, split *models.Split) bool {
	if requesterID == 0 || comment == nil {
		return false
	}
	if comment.UserID == requesterID {
		return true
	}
	return split != nil && split.ID == comment.SplitID && split.UserID == requesterID
}
