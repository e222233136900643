package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jrjohn/arcana-auth-client/pkg/errors"
)

// ErrorCodeKey is the gin context key holding the code of the error response
const ErrorCodeKey = "error_code"

// ErrorBody is the JSON error envelope written by the stub backend
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AbortWithError writes err as an ErrorBody and stops the handler chain.
// Errors that are not *errors.AppError become 500 INTERNAL_ERROR.
func AbortWithError(c *gin.Context, err error) {
	status := apperrors.GetStatus(err)
	code := apperrors.CodeInternalError
	message := http.StatusText(http.StatusInternalServerError)

	if appErr, ok := apperrors.AsAppError(err); ok && status != 0 {
		code = appErr.Code
		message = appErr.Message
	} else {
		status = http.StatusInternalServerError
		_ = c.Error(err)
	}

	c.Set(ErrorCodeKey, code)
	c.AbortWithStatusJSON(status, ErrorBody{Code: code, Message: message})
}
