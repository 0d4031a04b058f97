package cli

import (
	"context"
	"errors"
	"fmt"

	"scout-sync-go/pkg/cli/client"
	"scout-sync-go/pkg/config"
)

// RegisterUser creates a new user account and saves the API key
func (a *App) RegisterUser(ctx context.Context, email string) error {
	apiClient, err := a.getClientForRegistration()
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	user, err := apiClient.CreateUser(ctx, email)
	if err != nil {
		return errors.New(client.UserMessage(err))
	}

	a.cfg.CLI.APIKey = user.APIKey
	if err := config.Save(a.cfg); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	a.client = client.NewClient(a.cfg.CLI.BaseURL, user.APIKey)

	fmt.Fprintln(a.out, "✓ User registered successfully!")
	fmt.Fprintf(a.out, "  Email: %s\n", user.Email)
	fmt.Fprintf(a.out, "  User ID: %s\n", user.ID.String())
	fmt.Fprintln(a.out, "  API key saved to config automatically")
	fmt.Fprintln(a.out, "\n⚠️  Save this API key securely (it won't be shown again):")
	fmt.Fprintf(a.out, "  %s\n", user.APIKey)

	return nil
}
