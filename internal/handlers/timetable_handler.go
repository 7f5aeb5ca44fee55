package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/models"
	"github.com/traincheck/timetable-backend/internal/services"
)

// TimetableHandler serves departure, arrival and connection queries
type TimetableHandler struct {
	timetable *services.TimetableService
	calendar  *services.CalendarService
	logger    *logrus.Logger
}

// NewTimetableHandler creates a new timetable handler
func NewTimetableHandler(timetable *services.TimetableService, calendar *services.CalendarService, logger *logrus.Logger) *TimetableHandler {
	return &TimetableHandler{
		timetable: timetable,
		calendar:  calendar,
		logger:    logger,
	}
}

// Departures handles POST /api/v1/timetable/departures
// @Summary Departures board
// @Tags Timetable
// @Accept json
// @Produce json
// @Param request body models.StationBoardRequest true "Station, date and time"
// @Success 200 {array} models.Departure
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/timetable/departures [post]
func (h *TimetableHandler) Departures(c *gin.Context) {
	var req models.StationBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	departures, err := h.timetable.Departures(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, departures)
}

// Arrivals handles POST /api/v1/timetable/arrivals
// @Summary Arrivals board
// @Tags Timetable
// @Accept json
// @Produce json
// @Param request body models.StationBoardRequest true "Station, date and time"
// @Success 200 {array} models.Arrival
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/timetable/arrivals [post]
func (h *TimetableHandler) Arrivals(c *gin.Context) {
	var req models.StationBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	arrivals, err := h.timetable.Arrivals(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, arrivals)
}

// Connections handles POST /api/v1/connection
// @Summary Direct connections between two stations
// @Tags Timetable
// @Accept json
// @Produce json
// @Param request body models.ConnectionRequest true "Start, end, date and time"
// @Success 200 {array} models.Connection
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/connection [post]
func (h *TimetableHandler) Connections(c *gin.Context) {
	var req models.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	connections, err := h.timetable.Connections(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, connections)
}

// AllStops handles GET /api/v1/stops/all
func (h *TimetableHandler) AllStops(c *gin.Context) {
	names, err := h.timetable.AllStopNames(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, names)
}

// ServiceActive handles GET /api/v1/services/:serviceId/active?date=
func (h *TimetableHandler) ServiceActive(c *gin.Context) {
	activity, err := h.calendar.IsServiceActive(c.Request.Context(), c.Param("serviceId"), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}
