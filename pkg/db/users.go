package db

import (
	"context"
	"errors"
	"fmt"

	"scout-sync-go/pkg/models"

	"github.com/jackc/pgx/v5"
)

var ErrUserNotFound = errors.New("user not found")

// GetUserByAPIKey retrieves a user by their API key
func (db *DB) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	var user models.User
	err := db.Pool.QueryRow(ctx,
		`SELECT id, email, api_key, is_admin, created_at, updated_at
		 FROM users WHERE api_key = $1`,
		apiKey,
	).Scan(
		&user.ID,
		&user.Email,
		&user.APIKey,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// CreateUser creates a new non-admin user
func (db *DB) CreateUser(ctx context.Context, email, apiKey string) (*models.User, error) {
	var user models.User
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (email, api_key)
		 VALUES ($1, $2)
		 RETURNING id, email, api_key, is_admin, created_at, updated_at`,
		email, apiKey,
	).Scan(
		&user.ID,
		&user.Email,
		&user.APIKey,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}
