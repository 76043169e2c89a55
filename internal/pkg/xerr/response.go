package xerr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeError carries a business code together with the wrapped error.
type CodeError struct {
	Code int
	Err  error
}

func (e *CodeError) Error() string {
	return e.Err.Error()
}

func (e *CodeError) Unwrap() error {
	return e.Err
}

func NewCodeError(code int, err error) *CodeError {
	return &CodeError{Code: code, Err: err}
}

// mapping is ordered: the first sentinel matched by errors.Is wins.
var mapping = []struct {
	target error
	status int
	code   int
}{
	{ErrInvalidParams, http.StatusBadRequest, InvalidParamsCode},
	{ErrValidationFailed, http.StatusBadRequest, ValidationFailedCode},
	{ErrInvalidVisibility, http.StatusBadRequest, InvalidVisibilityCode},
	{ErrSelfShare, http.StatusBadRequest, SelfShareCode},
	{ErrUnauthorized, http.StatusUnauthorized, UnauthorizedCode},
	{ErrTokenInvalid, http.StatusUnauthorized, TokenInvalidCode},
	{ErrInvalidCredentials, http.StatusUnauthorized, InvalidCredentialsCode},
	{ErrAccountDeactivated, http.StatusForbidden, AccountDeactivatedCode},
	{ErrForbidden, http.StatusForbidden, ForbiddenCode},
	{ErrPermissionDenied, http.StatusForbidden, PermissionDeniedCode},
	{ErrUserNotFound, http.StatusNotFound, UserNotFoundCode},
	{ErrDiveNotFound, http.StatusNotFound, DiveNotFoundCode},
	{ErrShareNotFound, http.StatusNotFound, ShareNotFoundCode},
	{ErrShareExpired, http.StatusGone, ShareExpiredCode},
	{ErrUserAlreadyExists, http.StatusConflict, UserAlreadyExistsCode},
	{ErrEmailAlreadyExists, http.StatusConflict, EmailAlreadyExistsCode},
}

// Classify maps err onto an HTTP status and business code. The boolean is
// false for errors outside the taxonomy, which callers must treat as 500.
func Classify(err error) (status int, code int, ok bool) {
	var ce *CodeError
	for _, m := range mapping {
		if errors.Is(err, m.target) {
			status, code = m.status, m.code
			if errors.As(err, &ce) {
				code = ce.Code
			}
			return status, code, true
		}
	}
	return http.StatusInternalServerError, InternalServerErrorCode, false
}

// Response is the JSON envelope of every API answer.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func JSONResponse(c *gin.Context, httpStatus int, code int, message string, data any) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func Success(c *gin.Context, httpStatus int, message string, data any) {
	JSONResponse(c, httpStatus, SuccessCode, message, data)
}

func Error(c *gin.Context, httpStatus int, code int, message string) {
	JSONResponse(c, httpStatus, code, message, nil)
}

// AbortWithError writes the error response and stops the handler chain.
func AbortWithError(c *gin.Context, httpStatus int, code int, message string) {
	Error(c, httpStatus, code, message)
	c.Abort()
}
