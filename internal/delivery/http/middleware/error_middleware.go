package middleware

import (
	"net/http"

	"go-healthcare-portal/internal/delivery/http/response"
	"go-healthcare-portal/pkg/apperror"
	"go-healthcare-portal/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperror.From(c.Errors.Last().Err)
		if appErr.Code >= http.StatusInternalServerError {
			logger.Log.Error("Request failed",
				"request_id", requestIDFrom(c),
				"path", c.Request.URL.Path,
				"status", appErr.Code,
				"error", appErr.Err,
			)
		}
		if appErr.Code == http.StatusServiceUnavailable {
			c.Header("Retry-After", "30")
		}
		message := appErr.Message
		if appErr.Code == http.StatusInternalServerError {
			// Never expose internal error details to clients
			message = "An unexpected error occurred. Please try again later."
		}
		response.Error(c, appErr.Code, message)
	}
}
