package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Detail string `json:"detail"`
}

type errorMapping struct {
	err    error
	status int
	detail string
}

var errorMappings = []errorMapping{
	{common.ErrDuplicateEmail, http.StatusBadRequest, "Email already registered"},
	{common.ErrInactiveAccount, http.StatusBadRequest, "Inactive user"},
	{common.ErrInvalidCredentials, http.StatusUnauthorized, "Incorrect email or password"},
	{common.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{common.ErrTokenRevokedOrUnknown, http.StatusUnauthorized, "Refresh token revoked or not found"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "Could not validate credentials"},
	{common.ErrorForbidden, http.StatusForbidden, "Admin privileges required"},
	{common.ErrorNotFound, http.StatusNotFound, "Task not found"},
	{common.ErrPasswordTooLong, http.StatusUnprocessableEntity, "Password is too long"},
}

// statusFor maps a service error to its HTTP status and client-facing
// detail. Unknown errors become a bare 500.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.detail
		}
	}
	return http.StatusInternalServerError, "internal error"
}

func abortWithError(c *gin.Context, err error) {
	status, detail := statusFor(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", common.BearerScheme)
	}
	c.AbortWithStatusJSON(status, errorBody{Detail: detail})
}

func abortWithValidation(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorBody{Detail: err.Error()})
}
