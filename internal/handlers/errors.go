package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/models"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// SuccessResponse is returned by endpoints that have no payload
type SuccessResponse struct {
	Message string `json:"message"`
}

// respondError maps a service error to its HTTP status and writes the body.
// Errors without a kind are treated as store failures.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	se, ok := models.AsServiceError(err)
	if !ok {
		se = models.NewStoreUnavailable("internal error", err)
	}

	entry := logger.WithFields(logrus.Fields{
		"path":  c.Request.URL.Path,
		"kind":  se.Kind,
		"error": err.Error(),
	})
	if se.Kind == models.ErrStoreUnavailable {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	message := se.Message
	if se.Kind == models.ErrStoreUnavailable {
		message = "the timetable store is unavailable"
	}

	c.JSON(se.HTTPStatus(), ErrorResponse{
		Error:   string(se.Kind),
		Message: message,
		Code:    se.Code(),
	})
}

// respondBindError reports a malformed request body
func respondBindError(c *gin.Context, logger *logrus.Logger, err error) {
	logger.WithError(err).WithField("path", c.Request.URL.Path).Warn("Invalid request body")
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   string(models.ErrInvalidInput),
		Message: "Invalid request body: " + err.Error(),
		Code:    "INVALID_INPUT",
	})
}
