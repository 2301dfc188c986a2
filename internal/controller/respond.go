package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hems-edu/examgate/internal/apperr"
	"github.com/hems-edu/examgate/internal/dto"
)

// RespondError maps the service failure taxonomy onto HTTP statuses.
// Kinds are part of the response so clients can branch without parsing
// messages.
func RespondError(ctx *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	message := err.Error()

	switch kind {
	case apperr.KindInvalidInput:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindPreconditionFailed:
		status = http.StatusConflict
	case apperr.KindIntegrityViolation:
		status = http.StatusBadRequest
	case apperr.KindTransientConflict:
		status = http.StatusConflict
	case apperr.KindInfrastructure:
		// Do not leak storage details to the client.
		message = "internal error"
	}

	ctx.JSON(status, dto.ErrorResponse{Message: message, Kind: kind.String()})
}

// RespondBindError reports a gin binding failure.
func RespondBindError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Message: "invalid request body",
		Kind:    apperr.KindInvalidInput.String(),
		Details: []string{err.Error()},
	})
}
