package server

import (
	"io"
	"strings"

	"splitboard/internal/models"
	"splitboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadSplitResponse is returned after a successful upload.
type UploadSplitResponse struct {
	Message string        `json:"message"`
	Split   SplitResponse `json:"split"`
}

// SplitEnvelope wraps a single split.
type SplitEnvelope struct {
	Split SplitResponse `json:"split"`
}

// ListSplits handles GET /api/splits
// @Summary List splits
// @Description Paginated feed of splits, optionally restricted to one owner
// @Tags splits
// @Produce json
// @Param sort query string false "newest, highest-rated or trending"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Rows to skip"
// @Param userId query int false "Only splits owned by this user"
// @Success 200 {object} SplitListResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /splits [get]
func (s *Server) ListSplits(c *fiber.Ctx) error {
	page := parsePagination(c, service.DefaultPageSize)
	userID, err := parseOptionalID(c, "userId")
	if err != nil {
		return nil
	}

	result, err := s.splitService.ListSplits(c.UserContext(), service.ListSplitsInput{
		Sort:   models.SplitSort(strings.ToLower(strings.TrimSpace(c.Query("sort")))),
		Limit:  page.Limit,
		Offset: page.Offset,
		UserID: userID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(SplitListResponse{
		Splits:     toSplitResponses(result.Splits),
		Pagination: toPagination(result),
	})
}

// GetSplit handles GET /api/splits/:id
// @Summary Get a split
// @Description A split with its comments, newest first. Each comment reports whether the caller may delete it.
// @Tags splits
// @Produce json
// @Param id path int true "Split ID"
// @Success 200 {object} SplitEnvelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /splits/{id} [get]
func (s *Server) GetSplit(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	split, err := s.splitService.GetSplit(c.UserContext(), id, requesterID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	resp := toSplitResponse(split)
	if resp.Comments == nil {
		resp.Comments = []CommentResponse{}
	}
	return c.JSON(SplitEnvelope{Split: resp})
}

// UploadSplit handles POST /api/splits/upload
// @Summary Upload a split
// @Description Stores the photo, has it judged and publishes the split
// @Tags splits
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "JPEG, PNG, WebP or HEIC photo"
// @Param caption formData string false "Optional caption (max 500 characters)"
// @Success 201 {object} UploadSplitResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /splits/upload [post]
func (s *Server) UploadSplit(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No image uploaded"))
	}
	if file.Size > s.ingestor.MaxUploadSizeBytes() {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Image is too large"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	var caption *string
	if raw := c.FormValue("caption"); raw != "" {
		caption = &raw
	}

	split, err := s.splitService.UploadSplit(c.UserContext(), service.UploadSplitInput{
		UserID:      requesterID(c),
		Caption:     caption,
		Content:     content,
		ContentType: file.Header.Get(fiber.HeaderContentType),
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(UploadSplitResponse{
		Message: "Split uploaded successfully",
		Split:   toSplitResponse(split),
	})
}
