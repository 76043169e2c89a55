package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/3Eeeecho/go-divelog/internal/config"
	"github.com/3Eeeecho/go-divelog/internal/models"
	"github.com/3Eeeecho/go-divelog/internal/pkg/utils"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/3Eeeecho/go-divelog/internal/services/access"
	"github.com/3Eeeecho/go-divelog/internal/services/share"
	"github.com/gin-gonic/gin"
)

type ShareHandler struct {
	shareService share.ShareService
	gateway      access.Gateway
	cfg          *config.ShareConfig
}

func NewShareHandler(shareService share.ShareService, gateway access.Gateway, cfg *config.ShareConfig) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		gateway:      gateway,
		cfg:          cfg,
	}
}

// CreateShareRequest expiration_days: absent uses the default, null never
// expires, N expires after N days.
type CreateShareRequest struct {
	ExpirationDays OptionalInt `json:"expiration_days"`
}

// ShareWithUserRequest recipient is a username or an email; username is the
// older name of the same field.
type ShareWithUserRequest struct {
	Recipient string `json:"recipient"`
	Username  string `json:"username"`
}

type UpdateVisibilityRequest struct {
	Visibility string  `json:"visibility" binding:"required"`
	ShareID    *uint64 `json:"share_id"`
}

func (h *ShareHandler) shareLink(token string) string {
	return fmt.Sprintf("%s/shared/dive/%s", strings.TrimRight(h.cfg.BaseURL, "/"), token)
}

// bindOptionalJSON binds the body when there is one; an empty body is not an error.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// CreatePublicShare POST /api/v1/shares/dives/:dive_id/share
func (h *ShareHandler) CreatePublicShare(c *gin.Context) {
	diveID, ok := parseIDParam(c, "dive_id")
	if !ok {
		return
	}
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req CreateShareRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "expiration_days must be an integer or null")
		return
	}
	expiry := share.DefaultExpiry()
	switch {
	case req.ExpirationDays.Set && !req.ExpirationDays.Valid:
		expiry = share.NeverExpire()
	case req.ExpirationDays.Valid:
		expiry = share.ExpireInDays(req.ExpirationDays.Value)
	}

	sh, err := h.shareService.CreatePublicShare(c.Request.Context(), diveID, userID, expiry)
	if err != nil {
		respondError(c, "CreatePublicShare", err, "Failed to create share link")
		return
	}

	xerr.Success(c, http.StatusCreated, "Share link created", gin.H{
		"share_id":        sh.ID,
		"share_link":      h.shareLink(sh.Token),
		"token":           sh.Token,
		"expiration_time": sh.ExpirationTime,
		"created_at":      sh.CreatedAt,
	})
}

// ShareWithUser POST /api/v1/shares/dives/:dive_id/share-with-user
func (h *ShareHandler) ShareWithUser(c *gin.Context) {
	diveID, ok := parseIDParam(c, "dive_id")
	if !ok {
		return
	}
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req ShareWithUserRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}
	recipient := req.Recipient
	if recipient == "" {
		recipient = req.Username
	}

	res, err := h.shareService.CreateUserShare(c.Request.Context(), diveID, userID, recipient)
	if err != nil {
		respondError(c, "ShareWithUser", err, "Failed to share dive")
		return
	}

	if res.AlreadyShared {
		msg := "Dive already shared with " + res.Recipient.Username
		xerr.Success(c, http.StatusOK, msg, gin.H{
			"success":        true,
			"already_shared": true,
			"message":        msg,
			"shared_with_id": res.Recipient.ID,
			"share_id":       res.Share.ID,
			"created_at":     res.Share.CreatedAt,
		})
		return
	}

	msg := "Dive shared with " + res.Recipient.Username
	xerr.Success(c, http.StatusCreated, msg, gin.H{
		"success":         true,
		"already_shared":  false,
		"message":         msg,
		"shared_with_id":  res.Recipient.ID,
		"share_id":        res.Share.ID,
		"token":           res.Share.Token,
		"expiration_time": res.Share.ExpirationTime,
		"created_at":      res.Share.CreatedAt,
	})
}

// ViewSharedDive GET /api/v1/shares/dive/:token. No session required.
func (h *ShareHandler) ViewSharedDive(c *gin.Context) {
	view, err := h.gateway.AuthorizeToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, "ViewSharedDive", err, "Failed to load shared dive")
		return
	}
	xerr.Success(c, http.StatusOK, "Shared dive retrieved", view)
}

// UpdateVisibility PUT /api/v1/shares/dives/:dive_id/visibility
func (h *ShareHandler) UpdateVisibility(c *gin.Context) {
	diveID, ok := parseIDParam(c, "dive_id")
	if !ok {
		return
	}
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req UpdateVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidVisibilityCode, xerr.ErrInvalidVisibility.Error())
		return
	}

	sh, err := h.shareService.UpdateVisibility(c.Request.Context(), diveID, userID, models.ShareVisibility(req.Visibility), req.ShareID)
	if err != nil {
		respondError(c, "UpdateVisibility", err, "Failed to update visibility")
		return
	}
	xerr.Success(c, http.StatusOK, "Visibility updated", gin.H{
		"visibility": sh.Visibility,
		"share_id":   sh.ID,
	})
}

// ListSharedWithMe GET /api/v1/shares/shared-with-me
func (h *ShareHandler) ListSharedWithMe(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	items, err := h.shareService.ListSharedWithMe(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "ListSharedWithMe", err, "Failed to list shared dives")
		return
	}
	xerr.Success(c, http.StatusOK, "Shared dives retrieved", items)
}

// ListMyShares GET /api/v1/shares/my?page=1&pageSize=10
func (h *ShareHandler) ListMyShares(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	shares, total, err := h.shareService.ListMyShares(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		respondError(c, "ListMyShares", err, "Failed to list shares")
		return
	}
	xerr.Success(c, http.StatusOK, "Shares retrieved", gin.H{
		"shares": shares,
		"total":  total,
	})
}

// RevokeShare DELETE /api/v1/shares/:share_id
func (h *ShareHandler) RevokeShare(c *gin.Context) {
	shareID, ok := parseIDParam(c, "share_id")
	if !ok {
		return
	}
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.shareService.RevokeShare(c.Request.Context(), shareID, userID); err != nil {
		respondError(c, "RevokeShare", err, "Failed to revoke share")
		return
	}
	c.Status(http.StatusNoContent)
}
