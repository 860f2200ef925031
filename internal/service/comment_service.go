package service

import (
	"context"
	"log/slog"

	"splitboard/internal/models"
	"splitboard/internal/notifications"
	"splitboard/internal/observability"
	"splitboard/internal/repository"
	"splitboard/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	splitRepo   repository.SplitRepository
	events      EventPublisher
}

type CreateCommentInput struct {
	UserID  uint
	SplitID uint
	Content string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

// CommentDeleted is the feed payload for a removed comment.
type CommentDeleted struct {
	CommentID uint `json:"commentId"`
	SplitID   uint `json:"splitId"`
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	splitRepo repository.SplitRepository,
	events EventPublisher,
) *CommentService {
	if events == nil {
		events = noopPublisher{}
	}
	return &CommentService{
		commentRepo: commentRepo,
		splitRepo:   splitRepo,
		events:      events,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	content, err := validation.NormalizeCommentContent(in.Content)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.SplitID == 0 {
		return nil, models.NewValidationError("splitId is required")
	}
	if _, err := s.splitRepo.GetByID(ctx, in.SplitID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: content,
		UserID:  in.UserID,
		SplitID: in.SplitID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.CanDelete = true

	s.publish(ctx, notifications.EventCommentCreated, comment)
	return comment, nil
}

// DeleteComment removes a comment on behalf of its author or the owner of
// the split it was left on.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	if in.UserID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	split, err := s.splitRepo.GetByID(ctx, comment.SplitID)
	if err != nil {
		return err
	}
	if !CanDeleteComment(in.UserID, comment, split) {
		return models.NewForbiddenError("You do not have permission to delete this comment")
	}
	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return err
	}

	s.publish(ctx, notifications.EventCommentDeleted, CommentDeleted{CommentID: comment.ID, SplitID: comment.SplitID})
	return nil
}

func (s *CommentService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to publish feed event",
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
	}
}
