package v1

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/config"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	userIDHeader = "X-User-ID"
	actorKey     = "actor"
)

// APIKeyAuthMiddleware - middleware для аутентификации по API-ключу.
// Для WebSocket ключ можно передать параметром api_key.
func APIKeyAuthMiddleware(cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			// Проверяем также заголовок Authorization: Bearer
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				apiKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		if apiKey == "" {
			log.Warn("API key missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Message: "API key required", Reason: "unauthorized"})
			return
		}

		isValid := false
		for _, key := range cfg.APIKeys {
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
				isValid = true
				break
			}
		}

		if !isValid {
			log.WithField("path", c.FullPath()).Warn("Invalid API key provided")
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Message: "invalid API key", Reason: "unauthorized"})
			return
		}

		c.Next()
	}
}

// IdentityMiddleware находит вызывающего по X-User-ID в каталоге пользователей
func IdentityMiddleware(users service.UserDirectory, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Message: "X-User-ID header required", Reason: "unauthorized"})
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrRecordNotFound) {
				log.WithField("user_id", userID).Warn("Unknown user in request")
				c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Message: "unknown user", Reason: apperror.ReasonUserNotFound})
				return
			}
			respondError(c, log.WithField("middleware", "identity"), err)
			return
		}

		c.Set(actorKey, user)
		c.Next()
	}
}

// RequireRole пропускает только пользователей указанной роли
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		if actor == nil || actor.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, Response{
				Message: "this endpoint requires role " + string(role),
				Reason:  apperror.ReasonForbidden,
			})
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) *models.User {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
