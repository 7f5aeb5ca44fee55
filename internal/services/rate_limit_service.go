package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/database"
)

// LoginAttemptStore persists failed login attempts
type LoginAttemptStore interface {
	CountSince(ctx context.Context, identifier, identifierType string, since time.Time) (int, time.Time, error)
	Record(ctx context.Context, identifier, identifierType string) error
	Clear(ctx context.Context, identifier, identifierType string) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateLimitConfig holds login rate limiting configuration
type RateLimitConfig struct {
	MaxUsernameAttempts int           // failed logins allowed per username
	UsernameWindow      time.Duration // window for the username limit
	MaxIPAttempts       int           // failed logins allowed per client IP
	IPWindow            time.Duration // window for the IP limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxUsernameAttempts: 5,
		UsernameWindow:      15 * time.Minute,
		MaxIPAttempts:       20,
		IPWindow:            time.Hour,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "username" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// RateLimitService throttles repeated failed logins
type RateLimitService struct {
	store  LoginAttemptStore
	config RateLimitConfig
	logger *logrus.Logger
}

// NewRateLimitService creates a new rate limit service. Non-positive limits
// fall back to the defaults.
func NewRateLimitService(store LoginAttemptStore, config RateLimitConfig, logger *logrus.Logger) *RateLimitService {
	defaults := DefaultRateLimitConfig()
	if config.MaxUsernameAttempts <= 0 || config.UsernameWindow <= 0 {
		config.MaxUsernameAttempts = defaults.MaxUsernameAttempts
		config.UsernameWindow = defaults.UsernameWindow
	}
	if config.MaxIPAttempts <= 0 || config.IPWindow <= 0 {
		config.MaxIPAttempts = defaults.MaxIPAttempts
		config.IPWindow = defaults.IPWindow
	}

	return &RateLimitService{
		store:  store,
		config: config,
		logger: logger,
	}
}

// CheckLogin returns a *RateLimitError when the username or the client IP
// has used up its failed attempts
func (s *RateLimitService) CheckLogin(ctx context.Context, username, ip string) error {
	username = normalizeIdentifier(username)

	if username != "" {
		if err := s.check(ctx, username, database.IdentifierUsername,
			s.config.MaxUsernameAttempts, s.config.UsernameWindow,
			"Too many failed logins for this account"); err != nil {
			return err
		}
	}

	if ip != "" {
		if err := s.check(ctx, ip, database.IdentifierIP,
			s.config.MaxIPAttempts, s.config.IPWindow,
			"Too many failed logins from this IP address"); err != nil {
			return err
		}
	}

	return nil
}

func (s *RateLimitService) check(ctx context.Context, identifier, identifierType string, max int, window time.Duration, message string) error {
	count, last, err := s.store.CountSince(ctx, identifier, identifierType, time.Now().Add(-window))
	if err != nil {
		return storeError(s.logger, "check login rate limit", err)
	}

	if count < max {
		return nil
	}

	retryAfter := last.Add(window)
	s.logger.WithFields(logrus.Fields{
		"type":        identifierType,
		"identifier":  identifier,
		"attempts":    count,
		"retry_after": retryAfter,
	}).Warn("Login rate limit exceeded")

	return &RateLimitError{
		Message:    fmt.Sprintf("%s. Please try again after %s", message, retryAfter.UTC().Format("15:04:05")),
		RetryAfter: retryAfter,
		Type:       identifierType,
	}
}

// RecordFailedLogin counts a failed attempt against the username and IP
func (s *RateLimitService) RecordFailedLogin(ctx context.Context, username, ip string) error {
	if username = normalizeIdentifier(username); username != "" {
		if err := s.store.Record(ctx, username, database.IdentifierUsername); err != nil {
			return storeError(s.logger, "record failed login", err)
		}
	}

	if ip != "" {
		if err := s.store.Record(ctx, ip, database.IdentifierIP); err != nil {
			return storeError(s.logger, "record failed login", err)
		}
	}

	return nil
}

// ResetUsername forgets the failed attempts of an account after it logs in
func (s *RateLimitService) ResetUsername(ctx context.Context, username string) error {
	if username = normalizeIdentifier(username); username == "" {
		return nil
	}
	if err := s.store.Clear(ctx, username, database.IdentifierUsername); err != nil {
		return storeError(s.logger, "reset login attempts", err)
	}
	return nil
}

// CleanupExpired removes attempts older than the longest window
func (s *RateLimitService) CleanupExpired(ctx context.Context) (int64, error) {
	maxWindow := s.config.IPWindow
	if s.config.UsernameWindow > maxWindow {
		maxWindow = s.config.UsernameWindow
	}

	deleted, err := s.store.DeleteBefore(ctx, time.Now().Add(-maxWindow))
	if err != nil {
		return 0, storeError(s.logger, "cleanup login attempts", err)
	}
	return deleted, nil
}

func normalizeIdentifier(username string) string {
	return strings.TrimSpace(username)
}
