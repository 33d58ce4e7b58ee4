package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voucher-sync-ledger/internal/api_gateway/middleware"
)

// Response is the envelope every gateway endpoint answers with
type Response struct {
	Data          any        `json:"data,omitempty"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo describes a list payload
type MetaInfo struct {
	Count int `json:"count"`
	Limit int `json:"limit,omitempty"`
}

const (
	codeBadRequest    = "BAD_REQUEST"
	codeNotFound      = "NOT_FOUND"
	codeInternalError = "INTERNAL_SERVER_ERROR"
)

func respond(c *gin.Context, statusCode int, response Response) {
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	respond(c, statusCode, Response{Error: &ErrorInfo{Code: code, Message: message}})
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data any) {
	respond(c, http.StatusOK, Response{Data: data})
}

// RespondList sends a 200 OK response with a list and its size. A nil slice is
// written as an empty array so clients never see a missing data field.
func RespondList[T any](c *gin.Context, items []T, limit int) {
	if items == nil {
		items = []T{}
	}
	respond(c, http.StatusOK, Response{
		Data: items,
		Meta: &MetaInfo{Count: len(items), Limit: limit},
	})
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data any) {
	respond(c, http.StatusCreated, Response{Data: data})
}

// RespondAccepted sends a 202 Accepted response with data
func RespondAccepted(c *gin.Context, data any) {
	respond(c, http.StatusAccepted, Response{Data: data})
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, codeBadRequest, message)
}

// RespondNotFound sends a 404 Not Found response with an error
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, codeNotFound, message)
}

// RespondInternalError hides the cause from the client; callers log it first.
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, codeInternalError, "An internal server error occurred")
}
