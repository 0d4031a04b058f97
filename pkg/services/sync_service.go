package services

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"scout-sync-go/pkg/metrics"
	"scout-sync-go/pkg/models"
	"scout-sync-go/pkg/sheets"

	"go.uber.org/zap"
)

// SyncStore is the database surface the sync service needs
type SyncStore interface {
	ListPlayers(ctx context.Context) ([]models.Player, error)
	UpsertPlayer(ctx context.Context, p models.PlayerUpsert) (bool, error)
	RecordSync(ctx context.Context, direction models.SyncDirection, r models.SyncResult) error
	ListSyncHistory(ctx context.Context, limit int) ([]models.SyncRecord, error)
}

// SyncService handles Google Sheets import and export
type SyncService struct {
	store      SyncStore
	http       *http.Client
	csvURL     string
	exportPath string
	log        *zap.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(store SyncStore, httpClient *http.Client, csvURL, exportPath string, log *zap.Logger) *SyncService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncService{
		store:      store,
		http:       httpClient,
		csvURL:     csvURL,
		exportPath: exportPath,
		log:        log,
	}
}

// Import upserts every row of the spreadsheet. Failures are reported in the
// result with Success=false rather than as an error; only the history write
// can fail the call.
func (s *SyncService) Import(ctx context.Context) (*models.SyncResult, error) {
	result := s.runImport(ctx)
	return result, s.record(ctx, models.SyncImport, result)
}

func (s *SyncService) runImport(ctx context.Context) *models.SyncResult {
	body, err := sheets.Fetch(ctx, s.http, s.csvURL)
	if err != nil {
		return failedResult("Sync failed", err)
	}
	defer body.Close()

	rows, rowErrs, err := sheets.ParseRows(body)
	if err != nil {
		return failedResult("Sync failed", err)
	}

	var created, updated int
	errs := make([]string, 0, len(rowErrs))
	for _, re := range rowErrs {
		errs = append(errs, re.Error())
	}
	for _, row := range rows {
		isNew, err := s.store.UpsertPlayer(ctx, row.Player)
		if err != nil {
			s.log.Warn("row import failed", zap.Int("line", row.Line), zap.Error(err))
			errs = append(errs, sheets.RowError{Line: row.Line, Reason: err.Error()}.Error())
			continue
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}

	failed := len(errs)
	return &models.SyncResult{
		Success:        true,
		Message:        "Sync completed",
		RecordsCreated: models.IntPtr(created),
		RecordsUpdated: models.IntPtr(updated),
		RecordsFailed:  models.IntPtr(failed),
		TotalRecords:   models.IntPtr(created + updated + failed),
		Errors:         errs,
	}
}

// Export writes all players to the export path as CSV.
func (s *SyncService) Export(ctx context.Context) (*models.SyncResult, error) {
	result := s.runExport(ctx)
	return result, s.record(ctx, models.SyncExport, result)
}

func (s *SyncService) runExport(ctx context.Context) *models.SyncResult {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return failedResult("Export failed", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.exportPath), 0755); err != nil {
		return failedResult("Export failed", err)
	}
	// Write next to the target and rename so readers never see a partial file.
	tmp := s.exportPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return failedResult("Export failed", err)
	}
	if err := sheets.WritePlayers(f, players); err != nil {
		f.Close()
		os.Remove(tmp)
		return failedResult("Export failed", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return failedResult("Export failed", err)
	}
	if err := os.Rename(tmp, s.exportPath); err != nil {
		return failedResult("Export failed", err)
	}

	n := len(players)
	return &models.SyncResult{
		Success:        true,
		Message:        fmt.Sprintf("Exported %d players to %s", n, s.exportPath),
		RecordsCreated: models.IntPtr(0),
		RecordsUpdated: models.IntPtr(n),
		RecordsFailed:  models.IntPtr(0),
		TotalRecords:   models.IntPtr(n),
		Errors:         []string{},
	}
}

// History returns the latest sync runs
func (s *SyncService) History(ctx context.Context, limit int) ([]models.SyncRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.ListSyncHistory(ctx, limit)
}

func (s *SyncService) record(ctx context.Context, direction models.SyncDirection, r *models.SyncResult) error {
	metrics.SyncRuns.WithLabelValues(string(direction), strconv.FormatBool(r.Success)).Inc()
	if r.Success {
		s.log.Info("sync finished",
			zap.String("direction", string(direction)),
			zap.Int("created", models.IntValue(r.RecordsCreated)),
			zap.Int("updated", models.IntValue(r.RecordsUpdated)),
			zap.Int("failed", models.IntValue(r.RecordsFailed)),
		)
	} else {
		s.log.Error("sync failed", zap.String("direction", string(direction)), zap.String("message", r.Message))
	}

	if err := s.store.RecordSync(ctx, direction, *r); err != nil {
		return fmt.Errorf("failed to record sync history: %w", err)
	}
	return nil
}

func failedResult(prefix string, err error) *models.SyncResult {
	return &models.SyncResult{
		Success:        false,
		Message:        fmt.Sprintf("%s: %v", prefix, err),
		RecordsCreated: models.IntPtr(0),
		RecordsUpdated: models.IntPtr(0),
		RecordsFailed:  models.IntPtr(0),
		TotalRecords:   models.IntPtr(0),
		Errors:         []string{err.Error()},
	}
}
