package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/traincheck/timetable-backend/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `username, password_hash, role, created_at, updated_at`

// CreateUser inserts a new user. A taken username yields a Conflict error.
func (r *UserRepository) CreateUser(ctx context.Context, username, passwordHash, role string) (*models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	var user models.User
	err := r.db.QueryRowxContext(ctx, query, username, passwordHash, role).StructScan(&user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.NewConflict(fmt.Sprintf("user %s already exists", username), err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &user, nil
}

// UpdatePasswordHash replaces the stored hash. Returns false when the user
// does not exist.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, username, passwordHash string) (bool, error) {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE username = $1`

	result, err := r.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return false, fmt.Errorf("failed to update password: %w", err)
	}
	return affectedOne(result)
}

// UpdateUserRole sets the role of an existing user
func (r *UserRepository) UpdateUserRole(ctx context.Context, username, role string) (bool, error) {
	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE username = $1`

	result, err := r.db.ExecContext(ctx, query, username, role)
	if err != nil {
		return false, fmt.Errorf("failed to update user role: %w", err)
	}
	return affectedOne(result)
}

// ListUsers retrieves all users ordered by username
func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`

	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes a user. Returns false when the user does not exist.
func (r *UserRepository) DeleteUser(ctx context.Context, username string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return affectedOne(result)
}

func affectedOne(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}
