// Package middleware provides authentication, logging, rate limiting and
// tracing middleware for the HTTP server.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"splitboard/internal/config"
	"splitboard/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// TokenIssuer is the iss claim on every session token.
	TokenIssuer = "splitboard-api"
	// TokenAudience is the aud claim on every session token.
	TokenAudience = "splitboard-client"
	// TokenLifetime is how long an issued session token stays valid.
	TokenLifetime = 7 * 24 * time.Hour
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uint
	Username string
}

type principalKey struct{}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, p)
	return context.WithValue(ctx, UserIDKey, p.UserID)
}

// PrincipalFrom returns the caller stored by AuthRequired or OptionalAuth.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != 0
}

var (
	errMissingHeader = errors.New("Authorization header required")
	errHeaderFormat  = errors.New("Invalid authorization header format")
	errInvalidToken  = errors.New("Invalid or expired token")
	errInvalidClaims = errors.New("Invalid token claims")
)

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", errMissingHeader
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errHeaderFormat
	}
	return parts[1], nil
}

// IssueToken signs an HS256 session token for p.
func IssueToken(p Principal, secret string, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret not configured")
	}
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(p.UserID), 10),
		"username": p.Username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      now.Add(TokenLifetime).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates an HS256 session token and returns its principal.
func ParseToken(tokenString, secret string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Principal{}, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errInvalidClaims
	}

	// Extract user ID from "sub" claim (subject claim per RFC 7519)
	subStr, err := claims.GetSubject()
	if err != nil || subStr == "" {
		return Principal{}, errInvalidClaims
	}
	userID, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil || userID == 0 {
		return Principal{}, errInvalidClaims
	}

	username, _ := claims["username"].(string)
	return Principal{UserID: uint(userID), Username: username}, nil
}

func attachPrincipal(c *fiber.Ctx, p Principal) {
	c.Locals("userID", p.UserID)
	c.SetUserContext(WithPrincipal(c.UserContext(), p))
	observability.AddTraceAttributesToContext(c.UserContext(), attribute.Int64("user.id", int64(p.UserID)))
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	tokenString, err := bearerToken(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "UNAUTHORIZED",
		})
	}

	p, err := ParseToken(tokenString, cfg.JWTSecret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "UNAUTHORIZED",
		})
	}

	attachPrincipal(c, p)
	return c.Next()
}

// OptionalAuth attaches the principal when a valid bearer token is present
// and otherwise lets the request through anonymously.
func OptionalAuth(c *fiber.Ctx) error {
	if tokenString, err := bearerToken(c); err == nil {
		if p, err := ParseToken(tokenString, cfg.JWTSecret); err == nil {
			attachPrincipal(c, p)
		}
	}
	return c.Next()
}
