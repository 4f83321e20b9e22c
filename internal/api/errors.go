package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shorts/internal/engine"
	"shorts/internal/logging"
)

// statusFor maps organizer errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidName), errors.Is(err, ErrOpenUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	log := logging.WithContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request error", zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Success: false, Error: err.Error()})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
}
