package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/middleware"
	"github.com/traincheck/timetable-backend/internal/models"
	"github.com/traincheck/timetable-backend/internal/services"
	"github.com/traincheck/timetable-backend/internal/utils"
)

// AuthHandler handles registration, login and password changes
type AuthHandler struct {
	auth    *services.AuthService
	limiter *services.RateLimitService
	logger  *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, limiter *services.RateLimitService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		limiter: limiter,
		logger:  logger,
	}
}

// Register handles POST /api/v1/auth/register
// @Summary Register a user account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Credentials"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	clientIP := utils.ClientIP(c)

	if err := h.limiter.CheckLogin(ctx, req.Username, clientIP); err != nil {
		var rateLimitErr *services.RateLimitError
		if errors.As(err, &rateLimitErr) {
			respondRateLimited(c, rateLimitErr)
			return
		}
		respondError(c, h.logger, err)
		return
	}

	resp, err := h.auth.Login(ctx, req)
	if err != nil {
		if models.IsKind(err, models.ErrUnauthorized) {
			if recordErr := h.limiter.RecordFailedLogin(ctx, req.Username, clientIP); recordErr != nil {
				h.logger.WithError(recordErr).Warn("Failed to record failed login")
			}
		}
		respondError(c, h.logger, err)
		return
	}

	if err := h.limiter.ResetUsername(ctx, resp.Username); err != nil {
		h.logger.WithError(err).Warn("Failed to reset login attempts")
	}

	h.logger.WithFields(logrus.Fields{
		"username": resp.Username,
		"role":     resp.Role,
	}).Info("Login successful")

	c.JSON(http.StatusOK, resp)
}

// ChangePassword handles PUT /api/v1/profile/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), userCtx.Username, req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Password changed successfully"})
}

func respondRateLimited(c *gin.Context, err *services.RateLimitError) {
	retryAfter := int(time.Until(err.RetryAfter).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   "rate_limited",
		Message: err.Message,
		Code:    "RATE_LIMIT_EXCEEDED",
	})
}
