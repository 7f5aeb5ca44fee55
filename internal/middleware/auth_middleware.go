package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/pkg/jwt"
)

// UserContextKey is the key used to store user information in Gin context
const UserContextKey = "user"

// UserContext represents the authenticated user's information
type UserContext struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*jwt.Claims, error)
	IsTokenExpired(tokenString string) bool
}

func abortUnauthorized(c *gin.Context, kind, message, code string) {
	logrus.WithFields(logrus.Fields{
		"path": c.Request.URL.Path,
		"ip":   c.ClientIP(),
		"code": code,
	}).Warn("Authentication failed")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   kind,
		"message": message,
		"code":    code,
	})
}

// AuthMiddleware creates a middleware that validates JWT tokens
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "unauthorized", "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		// Check Bearer token format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "unauthorized", "Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abortUnauthorized(c, "unauthorized", "Token cannot be empty", "INVALID_AUTH_FORMAT")
			return
		}

		claims, err := tokens.ValidateAccessToken(tokenString)
		if err != nil {
			if tokens.IsTokenExpired(tokenString) {
				abortUnauthorized(c, "token_expired", "Access token has expired. Please log in again.", "TOKEN_EXPIRED")
			} else {
				abortUnauthorized(c, "invalid_token", "Invalid access token", "INVALID_TOKEN")
			}
			return
		}

		c.Set(UserContextKey, UserContext{
			Username: claims.Username,
			Role:     claims.Role,
		})

		c.Next()
	}
}

// RequireRole creates a middleware that checks if user has one of the roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User context not found. Auth middleware may not be applied.",
				"code":    "MISSING_USER_CONTEXT",
			})
			return
		}

		for _, role := range roles {
			if userCtx.Role == role {
				c.Next()
				return
			}
		}

		logrus.WithFields(logrus.Fields{
			"username": userCtx.Username,
			"role":     userCtx.Role,
			"path":     c.Request.URL.Path,
		}).Warn("Insufficient permissions")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to access this resource",
			"code":    "INSUFFICIENT_PERMISSIONS",
		})
	}
}

// GetUserContext retrieves the user context from Gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}

	userCtx, ok := value.(UserContext)
	if !ok {
		return UserContext{}, false
	}

	return userCtx, true
}

// MustGetUserContext retrieves the user context or panics (use only after AuthMiddleware)
func MustGetUserContext(c *gin.Context) UserContext {
	userCtx, exists := GetUserContext(c)
	if !exists {
		panic("user context not found - ensure AuthMiddleware is applied")
	}
	return userCtx
}
