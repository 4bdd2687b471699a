package api

import (
	"errors"
	"net/http"

	"github.com/Sushant9818/SmartScheduling/internal/logging"
	"github.com/Sushant9818/SmartScheduling/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// rejectionStatus maps a discriminated rejection reason onto an HTTP status.
// CONFLICT, NOT_IN_AVAILABILITY and FORBIDDEN are terminal for the caller and
// must not be retried automatically.
func rejectionStatus(reason service.Reason) int {
	switch reason {
	case service.ReasonNotFound:
		return http.StatusNotFound
	case service.ReasonConflict:
		return http.StatusConflict
	case service.ReasonNotInAvailability:
		return http.StatusUnprocessableEntity
	case service.ReasonForbidden:
		return http.StatusForbidden
	case service.ReasonInvalidTime, service.ReasonPast, service.ReasonInvalidStatus, service.ReasonInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError converts a service failure into the wire response.
// Typed rejections keep their reason code; anything else is a genuine
// storage/transport failure and surfaces as a generic server error.
func handleServiceError(c *gin.Context, err error) {
	var rej *service.Rejection
	if errors.As(err, &rej) {
		abortWithReason(c, rejectionStatus(rej.Reason), rej.Reason, rej.Message)
		return
	}
	logging.Get().Error("request failed", zap.Error(err))
	abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
}
