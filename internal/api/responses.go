package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nishant946/masset/internal/apperr"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Result is the {success, message} outcome of an administrative mutation.
type Result struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Category added"`
}

func OK(message string) Result {
	return Result{Success: true, Message: message}
}

func Fail(message string) Result {
	return Result{Success: false, Message: message}
}

// StatusFor maps a Result to the HTTP status written alongside it.
func StatusFor(r Result, success int) int {
	if r.Success {
		return success
	}
	return http.StatusUnprocessableEntity
}

// Abort writes err as an ErrorResponse with a status derived from its kind.
func Abort(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthorized:
		status = http.StatusForbidden
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindExternalProvider:
		status = http.StatusBadGateway
	}
	message := fallback
	if status != http.StatusInternalServerError {
		message = apperr.MessageOf(err, fallback)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}
