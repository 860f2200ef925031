package server

import (
	"splitboard/internal/models"
	"splitboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCommentRequest is the body of POST /api/comments.
type CreateCommentRequest struct {
	SplitID uint   `json:"splitId"`
	Content string `json:"content"`
}

// CommentCreatedResponse is returned after a comment is posted.
type CommentCreatedResponse struct {
	Message string          `json:"message"`
	Comment CommentResponse `json:"comment"`
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateComment handles POST /api/comments
// @Summary Comment on a split
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCommentRequest true "Comment"
// @Success 201 {object} CommentCreatedResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:  requesterID(c),
		SplitID: req.SplitID,
		Content: req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CommentCreatedResponse{
		Message: "Comment added successfully",
		Comment: toCommentResponse(comment),
	})
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete a comment
// @Description Allowed for the comment's author and the owner of the split it belongs to
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    requesterID(c),
		CommentID: id,
	}); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(MessageResponse{Message: "Comment deleted successfully"})
}
