package middlewares

import (
	"net/http"
	"strings"

	"github.com/3Eeeecho/go-divelog/internal/config"
	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/3Eeeecho/go-divelog/internal/pkg/utils"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/3Eeeecho/go-divelog/internal/repositories"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware validates the bearer token and stores the identity in the
// gin context. Tokens of deactivated or deleted accounts are refused.
func AuthMiddleware(cfg *config.JWTConfig, userRepo repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "Authorization header is required")
			return
		}

		// "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "Invalid Authorization header format")
			return
		}

		claims, err := utils.ParseToken(parts[1], cfg.SecretKey, cfg.Issuer)
		if err != nil {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.TokenInvalidCode, xerr.ErrTokenInvalid.Error())
			return
		}

		user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.Error("AuthMiddleware: user lookup failed", zap.Uint64("userID", claims.UserID), zap.Error(err))
			xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Failed to authenticate")
			return
		}
		if user == nil {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.TokenInvalidCode, xerr.ErrTokenInvalid.Error())
			return
		}
		if !user.IsActive() {
			xerr.AbortWithError(c, http.StatusForbidden, xerr.AccountDeactivatedCode, xerr.ErrAccountDeactivated.Error())
			return
		}

		c.Set(utils.ContextUserID, user.ID)
		c.Set(utils.ContextUsername, user.Username)
		c.Set(utils.ContextEmail, user.Email)

		c.Next()
	}
}
