// Package sheets reads the players spreadsheet from its published CSV export
// and writes player snapshots in the same layout.
package sheets

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scout-sync-go/pkg/models"
	"scout-sync-go/pkg/scraper"
)

// Header names accepted for each column, compared case-insensitively.
var columnAliases = map[string][]string{
	"name":             {"nome", "name"},
	"position":         {"posição", "posicao", "position"},
	"club":             {"clube", "club"},
	"transfermarkt_id": {"tm", "transfermarkt", "transfermarkt_id"},
	"market_value":     {"valor de mercado", "market value", "market_value"},
}

// ExportHeader is the header row written by WritePlayers.
var ExportHeader = []string{"Name", "Position", "Club", "TM", "Market Value", "Photo"}

// Row is one parsed spreadsheet line. Line is 1-based and counts the header.
type Row struct {
	Line   int
	Player models.PlayerUpsert
}

// RowError reports a line that could not be imported
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Line, e.Reason)
}

// Fetch downloads the CSV export at url.
func Fetch(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	if url == "" {
		return nil, errors.New("sheets csv url is not configured")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spreadsheet: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch spreadsheet: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// ParseRows reads the CSV and maps each line to a player upsert. Lines
// without a usable Transfermarkt id or name come back as RowErrors.
func ParseRows(r io.Reader) ([]Row, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, errors.New("spreadsheet is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := mapColumns(header)
	if _, ok := cols["transfermarkt_id"]; !ok {
		return nil, nil, errors.New("spreadsheet has no TM column")
	}
	if _, ok := cols["name"]; !ok {
		return nil, nil, errors.New("spreadsheet has no name column")
	}

	var (
		rows    []Row
		rowErrs []RowError
		line    = 1
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: err.Error()})
			continue
		}
		if blank(rec) {
			continue
		}

		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		tmID, ok := scraper.ExtractID(get("transfermarkt_id"))
		if !ok {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: "invalid Transfermarkt id"})
			continue
		}
		name := get("name")
		if name == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: "missing name"})
			continue
		}

		rows = append(rows, Row{
			Line: line,
			Player: models.PlayerUpsert{
				Name:            name,
				Club:            optional(get("club")),
				Position:        optional(get("position")),
				TransfermarktID: tmID,
				MarketValue:     optional(get("market_value")),
			},
		})
	}
	return rows, rowErrs, nil
}

// WritePlayers writes players as CSV with ExportHeader.
func WritePlayers(w io.Writer, players []models.Player) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, p := range players {
		err := cw.Write([]string{
			p.Name,
			deref(p.Position),
			deref(p.Club),
			deref(p.TransfermarktID),
			deref(p.MarketValue),
			deref(p.PhotoURL),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func mapColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for col, aliases := range columnAliases {
			if _, seen := cols[col]; seen {
				continue
			}
			for _, a := range aliases {
				if h == a {
					cols[col] = i
				}
			}
		}
	}
	return cols
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
