package server

import (
	"log"

	"splitboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedUpgrade rejects plain HTTP requests to the feed endpoint and attaches
// the caller's id when a valid token is presented.
func (s *Server) FeedUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("WebSocket upgrade required"))
	}
	c.Locals("feedUserID", requesterID(c))
	return c.Next()
}

// FeedWebSocket streams split and comment events to connected viewers.
// @Summary Live feed
// @Description WebSocket stream of split_created, comment_created and comment_deleted events
// @Tags feed
// @Router /ws/feed [get]
func (s *Server) FeedWebSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("feedUserID").(uint)

		client, err := s.feedHub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket feed: failed to register viewer: %v", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
