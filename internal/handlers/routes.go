package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/traincheck/timetable-backend/internal/middleware"
	"github.com/traincheck/timetable-backend/internal/models"
)

// Set bundles the API handlers
type Set struct {
	Timetable *TimetableHandler
	Auth      *AuthHandler
	Stats     *StatsHandler
	Admin     *AdminHandler
}

// RegisterRoutes mounts the API on the given group (normally /api/v1)
func RegisterRoutes(v1 *gin.RouterGroup, h Set, tokens middleware.TokenValidator) {
	timetable := v1.Group("/timetable")
	{
		timetable.POST("/departures", h.Timetable.Departures)
		timetable.POST("/arrivals", h.Timetable.Arrivals)
	}
	v1.POST("/connection", h.Timetable.Connections)
	v1.GET("/stops/all", h.Timetable.AllStops)
	v1.GET("/services/:serviceId/active", h.Timetable.ServiceActive)

	stats := v1.Group("/stats")
	{
		stats.GET("/top-stops", h.Stats.TopStops)
		stats.GET("/agency-activity", h.Stats.AgencyActivity)
		stats.GET("/route-trip-counts", h.Stats.RouteTripCounts)
	}

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}

	profile := v1.Group("/profile")
	profile.Use(middleware.AuthMiddleware(tokens))
	{
		profile.PUT("/password", h.Auth.ChangePassword)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokens), middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/custom-trip", h.Admin.CreateCustomTrip)
		admin.GET("/users", h.Admin.ListUsers)
		admin.DELETE("/users/:username", h.Admin.DeleteUser)
		admin.GET("/jobs", h.Admin.ListJobs)

		gtfs := admin.Group("/gtfs")
		gtfs.GET("/feeds", h.Admin.ListFeeds)
		gtfs.POST("/import/:feed", h.Admin.ImportFeed)
		gtfs.POST("/truncate", h.Admin.TruncateGTFS)
	}
}
