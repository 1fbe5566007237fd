package middleware

import (
	"academic_backend/internal/config"
	"academic_backend/internal/model"
	"academic_backend/internal/util"
	"academic_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ContextUser   = "user"
	ContextCaller = "caller"
)

// AuthMiddleware resolves the bearer token (or ?token= for websocket
// handshakes) into claims and a typed caller.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT rejected", zap.Error(err), zap.String("path", c.FullPath()))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(ContextUser, claims)
		caller, ok := util.CallerFromContext(c)
		if !ok {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		c.Set(ContextCaller, caller)
		c.Next()
	}
}

// RequirePermission checks the caller's role against the permission table once, at the boundary.
func RequirePermission(perm model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := util.CallerFromContext(c)
		if !ok {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if !caller.Can(perm) {
			util.RespondError(c, util.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
