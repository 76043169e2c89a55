package handlers

import (
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes err using the xerr taxonomy. Unknown errors are logged
// and answered with a 500 carrying fallback, never the internal detail.
func respondError(c *gin.Context, op string, err error, fallback string) {
	status, code, ok := xerr.Classify(err)
	if !ok {
		logger.Error(op+": "+fallback, zap.Error(err))
		xerr.Error(c, status, code, fallback)
		return
	}
	xerr.Error(c, status, code, err.Error())
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Invalid "+name)
		return 0, false
	}
	return id, true
}
