package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"scout-sync-go/pkg/models"
)

// StartJob starts a scraping job of the given kind and returns its task ID
func (c *Client) StartJob(ctx context.Context, kind models.JobKind) (string, error) {
	var path string
	switch kind {
	case models.JobPhotos:
		path = "/scraping/photos/start"
	case models.JobData:
		path = "/scraping/data/start"
	default:
		return "", newInvalidRequestError(fmt.Errorf("unknown job kind: %q", kind))
	}

	var resp models.StartTaskResponse
	if err := c.doJSONRequest(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return "", err
	}
	if resp.TaskID == "" {
		return "", newInvalidResponseError(fmt.Errorf("missing task_id"))
	}
	return resp.TaskID, nil
}

// GetStatus fetches the current status of a task
func (c *Client) GetStatus(ctx context.Context, taskID string) (*models.ScrapingTask, error) {
	var task models.ScrapingTask
	path := fmt.Sprintf("/scraping/status/%s", url.PathEscape(taskID))
	if err := c.doGetRequest(ctx, path, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Cancel asks the server to stop a task
func (c *Client) Cancel(ctx context.Context, taskID string) error {
	path := fmt.Sprintf("/scraping/cancel/%s", url.PathEscape(taskID))
	return c.doJSONRequest(ctx, http.MethodPost, path, nil, nil)
}
