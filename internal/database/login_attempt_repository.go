package database

import (
	"context"
	"fmt"
	"time"
)

// Identifier types recorded in login_attempts
const (
	IdentifierUsername = "username"
	IdentifierIP       = "ip"
)

// LoginAttemptRepository tracks failed logins for rate limiting
type LoginAttemptRepository struct {
	db DB
}

// NewLoginAttemptRepository creates a new login attempt repository
func NewLoginAttemptRepository(db DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

// CountSince returns the number of failed attempts for an identifier
// recorded after since, together with the time of the latest one.
func (r *LoginAttemptRepository) CountSince(ctx context.Context, identifier, identifierType string, since time.Time) (int, time.Time, error) {
	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM login_attempts
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3
	`

	var count int
	var last time.Time
	if err := r.db.QueryRowxContext(ctx, query, identifier, identifierType, since).Scan(&count, &last); err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to count login attempts: %w", err)
	}

	return count, last, nil
}

// Record inserts one failed attempt
func (r *LoginAttemptRepository) Record(ctx context.Context, identifier, identifierType string) error {
	query := `
		INSERT INTO login_attempts (identifier, identifier_type, created_at)
		VALUES ($1, $2, NOW())
	`

	if _, err := r.db.ExecContext(ctx, query, identifier, identifierType); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// Clear removes every attempt recorded for an identifier
func (r *LoginAttemptRepository) Clear(ctx context.Context, identifier, identifierType string) error {
	query := `DELETE FROM login_attempts WHERE identifier = $1 AND identifier_type = $2`

	if _, err := r.db.ExecContext(ctx, query, identifier, identifierType); err != nil {
		return fmt.Errorf("failed to clear login attempts: %w", err)
	}
	return nil
}

// DeleteBefore removes attempts older than cutoff and returns how many went
func (r *LoginAttemptRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup login attempts: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
