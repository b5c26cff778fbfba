package api

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AuthManager handles JWT authentication
type AuthManager struct {
	jwtSecret []byte
}

// NewAuthManager creates a new auth manager. An empty secret disables
// authentication: every request runs as the default user.
func NewAuthManager(jwtSecret string) *AuthManager {
	return &AuthManager{jwtSecret: []byte(jwtSecret)}
}

// Authenticate resolves the user ID for an Authorization header value.
func (a *AuthManager) Authenticate(authHeader string) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "default", nil
	}

	token, err := extractToken(authHeader)
	if err != nil {
		return "", err
	}
	return a.validateToken(token)
}

// validateToken validates a JWT token and returns the user ID
func (a *AuthManager) validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	if userID, ok := claims["user_id"].(string); ok {
		return userID, nil
	}
	// Try "sub" (subject) as fallback
	if sub, ok := claims["sub"].(string); ok {
		return sub, nil
	}
	return "", fmt.Errorf("user_id not found in token")
}

// extractToken extracts the JWT token from an Authorization header value.
// Supports both "Bearer <token>" and a bare token.
func extractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is empty")
	}

	parts := strings.Split(authHeader, " ")
	switch len(parts) {
	case 1:
		return parts[0], nil
	case 2:
		if strings.ToLower(parts[0]) != "bearer" {
			return "", fmt.Errorf("invalid authorization header format")
		}
		return parts[1], nil
	default:
		return "", fmt.Errorf("invalid authorization header format")
	}
}
