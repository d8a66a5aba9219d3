package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"marketplace-api/auth"
	"marketplace-api/models"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type RoleChecker interface {
	HasRole(ctx context.Context, userID string, role models.UserRole) (bool, error)
}

// BearerToken returns the token of an Authorization header, "" when absent
func BearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// AuthRequired validates the bearer token and injects the user id into context
func AuthRequired(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		userID, err := v.Verify(c.Request.Context(), token)
		if errors.Is(err, auth.ErrInvalidToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication"})
			return
		}
		if err != nil {
			log.Printf("verify token: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// RoleRequired enforces that caller holds one of the allowed global roles
func RoleRequired(checker RoleChecker, roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		for _, r := range roles {
			ok, err := checker.HasRole(c.Request.Context(), userID, r)
			if err != nil {
				log.Printf("role check for %s: %v", userID, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			if ok {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Access denied. Required role(s): " + rolesString(roles),
		})
	}
}

func rolesString(roles []models.UserRole) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// CORS answers preflight requests and lets browsers call every route
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
