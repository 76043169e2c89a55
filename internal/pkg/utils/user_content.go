package utils

import (
	"net/http"

	"github.com/3Eeeecho/go-divelog/internal/models"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
)

// Context keys set by the middlewares.
const (
	ContextUserID    = "userID"
	ContextUsername  = "username"
	ContextEmail     = "email"
	ContextDive      = "dive"
	ContextRequestID = "requestID"
)

// GetUserIDFromContext returns the authenticated user id. On failure it aborts
// the request and reports false.
func GetUserIDFromContext(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "authentication required")
		return 0, false
	}
	currentUserID, ok := userID.(uint64)
	if !ok {
		xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Invalid user ID type in context")
		return 0, false
	}
	return currentUserID, true
}

// GetDiveFromContext returns the dive loaded by the dive ownership middleware.
func GetDiveFromContext(c *gin.Context) (*models.Dive, bool) {
	v, exists := c.Get(ContextDive)
	if !exists {
		xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Dive not found in context")
		return nil, false
	}
	dive, ok := v.(*models.Dive)
	if !ok {
		xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Invalid dive type in context")
		return nil, false
	}
	return dive, true
}
