package xerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   int
	}{
		{ErrShareNotFound, http.StatusNotFound, ShareNotFoundCode},
		{ErrShareExpired, http.StatusGone, ShareExpiredCode},
		{ErrDiveNotFound, http.StatusNotFound, DiveNotFoundCode},
		{Wrapf(ErrUserNotFound, "user with username %s not found", "ghost"), http.StatusNotFound, UserNotFoundCode},
		{Wrapf(ErrPermissionDenied, "only the owner may share their own dive"), http.StatusForbidden, PermissionDeniedCode},
		{fmt.Errorf("tx: %w", ErrInvalidVisibility), http.StatusBadRequest, InvalidVisibilityCode},
		{ErrSelfShare, http.StatusBadRequest, SelfShareCode},
		{ErrAccountDeactivated, http.StatusForbidden, AccountDeactivatedCode},
		{ErrEmailAlreadyExists, http.StatusConflict, EmailAlreadyExistsCode},
		{NewCodeError(12345, ErrValidationFailed), http.StatusBadRequest, 12345},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, code, ok := Classify(tt.err)
			assert.True(t, ok)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}

	status, code, ok := Classify(errors.New("connection reset"))
	assert.False(t, ok)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, InternalServerErrorCode, code)
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrUserNotFound, "user with %s %s not found", "email", "a@b.c")
	assert.Equal(t, "user with email a@b.c not found", err.Error())
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrDiveNotFound)
}

func TestResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	AbortWithError(c, http.StatusGone, ShareExpiredCode, ErrShareExpired.Error())
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusGone, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ShareExpiredCode, resp.Code)
	assert.Equal(t, "share link expired", resp.Message)
	assert.Nil(t, resp.Data)
}
