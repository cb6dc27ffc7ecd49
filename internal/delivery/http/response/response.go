// Package response writes the JSON envelope every API endpoint answers with.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin key the request ID middleware stores the ID under.
const RequestIDKey = "RequestID"

type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     interface{} `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Bodies may contain health data, so no response is ever cacheable.
func write(c *gin.Context, code int, body Response) {
	body.RequestID = c.GetString(RequestIDKey)
	c.Header("Cache-Control", "no-store")
	c.JSON(code, body)
}

func Success(c *gin.Context, code int, message string, data interface{}) {
	write(c, code, Response{Success: true, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusCreated, message, data)
}

func Error(c *gin.Context, code int, message string) {
	write(c, code, Response{Message: message})
}

// ErrorWithDetails is Error plus a machine readable payload, e.g. per
// dependency health.
func ErrorWithDetails(c *gin.Context, code int, message string, details interface{}) {
	write(c, code, Response{Message: message, Error: details})
}

// BindError answers a request whose body could not be decoded.
func BindError(c *gin.Context, err error) {
	Error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
}
