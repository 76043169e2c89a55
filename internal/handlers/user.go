package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/3Eeeecho/go-divelog/internal/pkg/utils"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/3Eeeecho/go-divelog/internal/services/admin"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService admin.UserService
}

func NewUserHandler(userService admin.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// UserSummary is the public view of a user in search results.
type UserSummary struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstname" binding:"omitempty,max=50"`
	LastName  *string `json:"lastname" binding:"omitempty,max=50"`
	Bio       *string `json:"bio"`
}

// GetUserProfile GET /api/v1/users/me
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	currentUserID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserProfile(c.Request.Context(), currentUserID)
	if err != nil {
		respondError(c, "GetUserProfile", err, "Failed to retrieve user profile")
		return
	}

	xerr.Success(c, http.StatusOK, "User profile retrieved", user)
}

// UpdateProfile PATCH /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	currentUserID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), currentUserID, admin.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	})
	if err != nil {
		respondError(c, "UpdateProfile", err, "Failed to update profile")
		return
	}
	xerr.Success(c, http.StatusOK, "Profile updated", user)
}

// Deactivate DELETE /api/v1/users/me
func (h *UserHandler) Deactivate(c *gin.Context) {
	currentUserID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.userService.DeactivateUser(c.Request.Context(), currentUserID); err != nil {
		respondError(c, "Deactivate", err, "Failed to deactivate account")
		return
	}
	c.Status(http.StatusNoContent)
}

// SearchUsers GET /api/v1/users/search?q=
func (h *UserHandler) SearchUsers(c *gin.Context) {
	currentUserID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	users, err := h.userService.SearchUsers(c.Request.Context(), currentUserID, query)
	if err != nil {
		respondError(c, "SearchUsers", err, "Failed to search users")
		return
	}

	results := make([]UserSummary, 0, len(users))
	for _, u := range users {
		results = append(results, UserSummary{ID: u.ID, Username: u.Username, Email: u.Email})
	}
	message := "Users found"
	if utf8.RuneCountInString(query) < admin.MinSearchQueryLength {
		message = fmt.Sprintf("Please enter at least %d characters to search", admin.MinSearchQueryLength)
	}
	xerr.Success(c, http.StatusOK, message, gin.H{"users": results, "query": query})
}
