package middleware

import (
	"errors"
	"net/http"
	"strings"

	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/redis"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ContextUserIDKey = "user_id"

func AuthMiddleware(sessions *redis.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		claims, err := pkg.ParseAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
			return
		}

		// redis校验是否是正确的token
		ctx := c.Request.Context()
		origin, err := sessions.GetToken(ctx, claims.UserID)
		if errors.Is(err, redis.ErrTokenNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "session expired, please log in again"})
			return
		}
		if err != nil {
			zap.L().Error("session lookup failed", zap.Uint64("user_id", claims.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": "internal error"})
			return
		}
		if origin != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "account has been logged in elsewhere"})
			return
		}

		// 校验通过后更新过期时间
		if err := sessions.ExtendToken(ctx, claims.UserID); err != nil {
			zap.L().Warn("extend session failed", zap.Uint64("user_id", claims.UserID), zap.Error(err))
		}

		// 注入 user_id
		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// UserID 取出鉴权中间件注入的用户 id
func UserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
