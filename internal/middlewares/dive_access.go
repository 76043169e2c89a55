package middlewares

import (
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/3Eeeecho/go-divelog/internal/pkg/utils"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/3Eeeecho/go-divelog/internal/services/access"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DiveOwnerRequired guards routes addressing a dive by :dive_id. Only the
// owner passes; the loaded dive is stored under utils.ContextDive.
// It must run after AuthMiddleware.
func DiveOwnerRequired(gw access.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		diveID, err := strconv.ParseUint(c.Param("dive_id"), 10, 64)
		if err != nil {
			xerr.AbortWithError(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Invalid dive ID")
			return
		}
		userID, ok := utils.GetUserIDFromContext(c)
		if !ok {
			return
		}

		dive, err := gw.AuthorizeDirect(c.Request.Context(), diveID, userID)
		if err != nil {
			status, code, known := xerr.Classify(err)
			if !known {
				logger.Error("DiveOwnerRequired: authorization failed", zap.Uint64("diveID", diveID), zap.Error(err))
				xerr.AbortWithError(c, status, code, "Failed to load dive")
				return
			}
			xerr.AbortWithError(c, status, code, err.Error())
			return
		}

		c.Set(utils.ContextDive, dive)
		c.Next()
	}
}
