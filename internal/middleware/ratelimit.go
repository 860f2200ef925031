package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"splitboard/internal/models"
	"splitboard/internal/observability"
	"splitboard/internal/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// RateLimitKey selects the identifier a request is counted under.
type RateLimitKey func(c *fiber.Ctx) string

// ByUser keys on the authenticated principal, falling back to the client IP.
func ByUser(c *fiber.Ctx) string {
	if p, ok := PrincipalFrom(c.UserContext()); ok {
		return fmt.Sprintf("user:%d", p.UserID)
	}
	return "ip:" + c.IP()
}

// ByIP keys on the client IP.
func ByIP(c *fiber.Ctx) string {
	return "ip:" + c.IP()
}

// RateLimit rejects requests over the limiter's budget with 429 and a
// Retry-After header. A limiter error admits the request and is counted in
// splitboard_rate_limit_fail_open_total.
func RateLimit(limiter ratelimit.Limiter, key RateLimitKey, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision, err := limiter.Check(c.UserContext(), key(c))
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit check failed", slog.String("error", err.Error()))
			observability.RateLimitFailOpen.WithLabelValues(c.Route().Path).Inc()
			return c.Next()
		}
		if !decision.Allowed {
			seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
			return models.RespondWithError(c, fiber.StatusTooManyRequests, models.NewRateLimitedError(message))
		}
		return c.Next()
	}
}
