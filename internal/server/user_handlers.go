package server

import (
	"strings"

	"splitboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:username
// @Summary Get user profile
// @Description Public profile with aggregate stats and every split newest first
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Params("username"))
	if username == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Username is required"))
	}

	profile, err := s.userService.GetProfile(c.UserContext(), username)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(ProfileResponse{
		User:   toProfileUser(profile.User),
		Stats:  profile.Stats,
		Splits: toSplitResponses(profile.Splits),
	})
}
