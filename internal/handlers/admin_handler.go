package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/middleware"
	"github.com/traincheck/timetable-backend/internal/models"
	"github.com/traincheck/timetable-backend/internal/services"
)

// AdminHandler handles the ADMIN-only endpoints
type AdminHandler struct {
	customTrips *services.CustomTripService
	auth        *services.AuthService
	importer    *services.GTFSImportService
	jobs        *services.CronService
	logger      *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	customTrips *services.CustomTripService,
	auth *services.AuthService,
	importer *services.GTFSImportService,
	jobs *services.CronService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		customTrips: customTrips,
		auth:        auth,
		importer:    importer,
		jobs:        jobs,
		logger:      logger,
	}
}

// CreateCustomTrip handles POST /api/v1/admin/custom-trip
// @Summary Add an ad-hoc direct trip
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body models.CustomTripRequest true "Route, date, stations and times"
// @Success 201 {object} models.CustomTripResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/custom-trip [post]
func (h *AdminHandler) CreateCustomTrip(c *gin.Context) {
	var req models.CustomTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	result, err := h.customTrips.CreateCustomTrip(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"trip_id":    result.TripID,
		"created_by": middleware.MustGetUserContext(c).Username,
	}).Info("Custom trip added")

	c.JSON(http.StatusCreated, result)
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.auth.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// DeleteUser handles DELETE /api/v1/admin/users/:username
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor := middleware.MustGetUserContext(c)

	if err := h.auth.DeleteUser(c.Request.Context(), actor.Username, c.Param("username")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "User deleted"})
}

// ListFeeds handles GET /api/v1/admin/gtfs/feeds
func (h *AdminHandler) ListFeeds(c *gin.Context) {
	c.JSON(http.StatusOK, h.importer.Feeds())
}

// ImportFeed handles POST /api/v1/admin/gtfs/import/:feed
func (h *AdminHandler) ImportFeed(c *gin.Context) {
	summary, err := h.importer.ImportFeed(c.Request.Context(), c.Param("feed"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// TruncateGTFS handles POST /api/v1/admin/gtfs/truncate
func (h *AdminHandler) TruncateGTFS(c *gin.Context) {
	if err := h.importer.TruncateTables(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithField("by", middleware.MustGetUserContext(c).Username).Warn("GTFS data truncated")
	c.JSON(http.StatusOK, SuccessResponse{Message: "GTFS tables truncated"})
}

// ListJobs handles GET /api/v1/admin/jobs
func (h *AdminHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.jobs.Jobs()})
}
