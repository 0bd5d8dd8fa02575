package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, NewSuccessResponse(data))
}

// RespondWithMessage sends a success response that carries no data.
func RespondWithMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, &Response{Status: "success", Message: message})
}

// RespondWithError maps err onto its HTTP status. Errors that are not
// AppErrors are reported as internal without leaking their text.
func RespondWithError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	if appErr, ok := apperrors.As(err); ok {
		statusCode = appErr.HTTPStatus()
		if statusCode != http.StatusInternalServerError {
			message = appErr.Message
		}
	}

	if statusCode >= http.StatusInternalServerError {
		event := log.Error().Err(err).Str("path", c.FullPath())
		if apperrors.RollbackFailed(err) {
			event = event.Bool("rollback_failed", true)
		}
		event.Msg("request failed")
	}

	c.AbortWithStatusJSON(statusCode, NewErrorResponse(message))
}

// RespondWithStatus sends an error envelope with an explicit status. Used by
// middleware that rejects requests before any service runs.
func RespondWithStatus(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, NewErrorResponse(message))
}
