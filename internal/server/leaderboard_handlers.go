package server

import (
	"splitboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetLeaderboard handles GET /api/leaderboard
// @Summary Leaderboard
// @Description Ranks users by highest single split, average rating or total splits within a timeframe
// @Tags leaderboard
// @Produce json
// @Param type query string false "highest-single, average-rating or total-splits"
// @Param timeframe query string false "all-time, weekly or monthly"
// @Param limit query int false "Rows to return (default 100, max 500)"
// @Param userId query int false "User whose rank is reported in userRank"
// @Success 200 {object} LeaderboardResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /leaderboard [get]
func (s *Server) GetLeaderboard(c *fiber.Ctx) error {
	lookup, err := parseOptionalID(c, "userId")
	if err != nil {
		return nil
	}

	// A signed-in caller only ever sees its own rank.
	if caller := requesterID(c); caller != 0 && lookup != caller {
		lookup = caller
	}

	result, err := s.leaderboardService.Compute(c.UserContext(), service.LeaderboardQuery{
		Type:        c.Query("type"),
		Timeframe:   c.Query("timeframe"),
		Limit:       c.QueryInt("limit", 0),
		RequesterID: lookup,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(LeaderboardResponse{
		Leaderboard: result.Entries,
		UserRank:    result.Requester,
		Type:        result.Type,
		Timeframe:   string(result.Timeframe),
	})
}
