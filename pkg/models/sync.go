package models

import "time"

// SyncDirection tells whether a sync run pulled from or pushed to the spreadsheet
type SyncDirection string

const (
	SyncImport SyncDirection = "import"
	SyncExport SyncDirection = "export"
)

// SyncResult is the outcome of one Google Sheets import or export.
// Success=false is a reported failure, distinct from a transport error.
type SyncResult struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	RecordsCreated *int     `json:"records_created,omitempty"`
	RecordsUpdated *int     `json:"records_updated,omitempty"`
	RecordsFailed  *int     `json:"records_failed,omitempty"`
	TotalRecords   *int     `json:"total_records,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}

// SyncRecord is a persisted SyncResult as listed by the history endpoint
type SyncRecord struct {
	ID        int64         `db:"id" json:"id"`
	Direction SyncDirection `db:"direction" json:"direction"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	SyncResult
}

// IntValue dereferences an optional counter, treating nil as zero.
func IntValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
