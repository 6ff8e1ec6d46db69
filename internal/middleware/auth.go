// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"errors"
	"strings"

	"unionhall/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// TokenFailure classifies why a bearer token was rejected. WebSocket upgrades
// map each kind to a distinct close code, HTTP middleware maps them all to 401.
type TokenFailure int

const (
	TokenOK TokenFailure = iota
	TokenMalformed
	TokenExpired
	TokenMissingSubject
)

// ValidateToken parses and validates a JWT and returns the user ID from its
// subject claim. On failure the returned TokenFailure says what went wrong.
func ValidateToken(tokenString string) (uuid.UUID, TokenFailure) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, TokenExpired
		}
		return uuid.Nil, TokenMalformed
	}
	if !token.Valid {
		return uuid.Nil, TokenMalformed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, TokenMalformed
	}

	// Subject claim per RFC 7519 carries the user ID
	subClaim, ok := claims["sub"]
	if !ok {
		return uuid.Nil, TokenMissingSubject
	}
	subStr, ok := subClaim.(string)
	if !ok || subStr == "" {
		return uuid.Nil, TokenMissingSubject
	}

	userID, err := uuid.Parse(subStr)
	if err != nil {
		return uuid.Nil, TokenMissingSubject
	}

	return userID, TokenOK
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authorization header required",
		})
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid authorization header format",
		})
	}

	userID, failure := ValidateToken(parts[1])
	switch failure {
	case TokenOK:
	case TokenExpired:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	case TokenMissingSubject:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token structure - missing subject",
		})
	default:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	// Store user ID in context
	c.Locals("userID", userID)

	return c.Next()
}

// WebSocketTokenCheck validates JWT tokens from query parameters for WebSocket
// connections. Unlike AuthRequired it never rejects the HTTP upgrade: the
// outcome is stored in locals so the upgraded handler can close the socket
// with a protocol-level close code instead of an opaque handshake failure.
func WebSocketTokenCheck(c *fiber.Ctx) error {
	// Token comes from a query parameter because browsers cannot set headers
	// on WebSocket requests.
	token := c.Query("token")
	if token == "" {
		authHeader := c.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}

	if token == "" {
		c.Locals("wsAuthFailure", TokenMalformed)
		return c.Next()
	}

	userID, failure := ValidateToken(token)
	c.Locals("wsAuthFailure", failure)
	if failure == TokenOK {
		c.Locals("userID", userID)
	}

	return c.Next()
}
