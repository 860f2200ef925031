package server

import (
	"splitboard/internal/storage"

	"github.com/gofiber/fiber/v2"
)

const uploadCacheControl = "public, max-age=31536000, immutable"

// ServeUpload handles GET /api/uploads/:filename
// @Summary Fetch a stored image
// @Description Stored names are random and never reused, so responses are cached indefinitely
// @Tags uploads
// @Produce image/jpeg
// @Param filename path string true "Stored file name"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Router /uploads/{filename} [get]
func (s *Server) ServeUpload(c *fiber.Ctx) error {
	f, info, contentType, err := storage.Open(s.ingestor.Root(), c.Params("filename"))
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, uploadCacheControl)
	// fasthttp closes the stream once the body is written.
	return c.SendStream(f, int(info.Size()))
}
