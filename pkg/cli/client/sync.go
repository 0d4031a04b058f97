package client

import (
	"context"
	"fmt"
	"net/http"

	"scout-sync-go/pkg/models"
)

// SyncGoogleSheets imports players from the configured spreadsheet
func (c *Client) SyncGoogleSheets(ctx context.Context) (*models.SyncResult, error) {
	var result models.SyncResult
	if err := c.doJSONRequest(ctx, http.MethodPost, "/sync/google-sheets", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExportToSheets pushes players to the spreadsheet export target
func (c *Client) ExportToSheets(ctx context.Context) (*models.SyncResult, error) {
	var result models.SyncResult
	if err := c.doJSONRequest(ctx, http.MethodPost, "/sync/export-to-sheets", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SyncHistory lists the most recent sync runs
func (c *Client) SyncHistory(ctx context.Context, limit int) ([]models.SyncRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var records []models.SyncRecord
	if err := c.doGetRequest(ctx, fmt.Sprintf("/sync/history?limit=%d", limit), &records); err != nil {
		return nil, err
	}
	return records, nil
}
