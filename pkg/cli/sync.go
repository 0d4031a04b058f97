package cli

import (
	"context"
	"fmt"
)

// Sync imports players from Google Sheets, or exports them when export is set
func (a *App) Sync(ctx context.Context, export bool) error {
	api, err := a.getClient()
	if err != nil {
		return err
	}
	ctrl := a.newController(api, a.printNotifier())
	defer ctrl.Close()

	call := ctrl.SyncGoogleSheets
	if export {
		call = ctrl.ExportToSheets
	}
	result, err := call(ctx)
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		fmt.Fprint(a.out, FormatSyncErrors(result.Errors))
	}
	if !result.Success {
		return fmt.Errorf("sync failed: %s", result.Message)
	}
	return nil
}

// ShowHistory prints the most recent sync runs
func (a *App) ShowHistory(ctx context.Context, limit int) error {
	api, err := a.getClient()
	if err != nil {
		return err
	}
	records, err := api.SyncHistory(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to fetch sync history: %w", err)
	}
	fmt.Fprint(a.out, FormatHistoryTable(records))
	return nil
}
