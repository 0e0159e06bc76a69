package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vm-transcriber/internal/api/errors"
	"vm-transcriber/internal/app/logging"
)

// ErrorHandler turns panics into a generic JSON internal error.
func ErrorHandler(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := c.GetString(RequestIDKey)

		apiErr, ok := recovered.(*errors.APIError)
		if ok {
			apiErr.RequestID = requestID
		} else {
			logger.Error("Internal server error",
				zap.Any("recovered", recovered),
				zap.String("request_id", requestID),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			apiErr = errors.NewInternalError("Internal server error")
			apiErr.RequestID = requestID
		}

		c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
	})
}

// HandleError writes err as a JSON error response. Errors that are not
// APIErrors are reported as internal errors.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	apiErr, ok := err.(*errors.APIError)
	if !ok {
		_ = c.Error(err)
		apiErr = errors.NewInternalError("Internal server error")
	}
	apiErr.RequestID = c.GetString(RequestIDKey)
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
