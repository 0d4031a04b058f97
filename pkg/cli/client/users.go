package client

import (
	"context"
	"fmt"
	"net/http"

	"scout-sync-go/pkg/models"
)

// CreateUserRequest represents the request payload for creating a user
type CreateUserRequest struct {
	Email string `json:"email"`
}

// CreateUser creates a new user and returns the user with API key
func (c *Client) CreateUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	payload := CreateUserRequest{Email: email}
	if err := c.doJSONRequest(ctx, http.MethodPost, "/users", payload, &user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}
