package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"civictrack-be/models"
	"civictrack-be/services"
)

const (
	userKey   = "user"
	userIDKey = "user_id"
)

// AuthMiddleware resolves the bearer token to a user and stores it on the context.
func AuthMiddleware(auth *services.AuthService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			return
		}

		// Extracting token from "Bearer <token>" format
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		user, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if services.KindOf(err) == services.KindAuthentication {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, token failed"})
				return
			}
			if logger != nil {
				logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("authenticate request")
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			return
		}

		c.Set(userKey, user)
		c.Set(userIDKey, user.ID.Hex())
		c.Next()
	}
}

// CurrentUser returns the user set by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// RequireAuthority rejects callers whose role is not authority. It must run
// after AuthMiddleware.
func RequireAuthority() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentUser(c).IsAuthority() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Authority access required"})
			return
		}
		c.Next()
	}
}
