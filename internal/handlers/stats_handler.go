package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/models"
	"github.com/traincheck/timetable-backend/internal/services"
)

// StatsHandler serves dataset statistics
type StatsHandler struct {
	stats  *services.StatsService
	logger *logrus.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats *services.StatsService, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		logger: logger,
	}
}

// TopStops handles GET /api/v1/stats/top-stops?limit=
func (h *StatsHandler) TopStops(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, h.logger, models.NewInvalidInput("limit must be an integer"))
			return
		}
		limit = n
	}

	stops, err := h.stats.TopStops(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stops)
}

// AgencyActivity handles GET /api/v1/stats/agency-activity
func (h *StatsHandler) AgencyActivity(c *gin.Context) {
	rows, err := h.stats.AgencyActivity(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// RouteTripCounts handles GET /api/v1/stats/route-trip-counts
func (h *StatsHandler) RouteTripCounts(c *gin.Context) {
	rows, err := h.stats.RouteTripCounts(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}
