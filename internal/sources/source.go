package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/johnfenner/beecker-sub000/internal/config"
	apperrors "github.com/johnfenner/beecker-sub000/internal/errors"
)

// Table is a raw grid of cells as read from a spreadsheet: one header row
// plus data rows. Rows may be shorter than Headers.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Source reads the current rows of one dashboard page.
type Source interface {
	Fetch(ctx context.Context) (Table, error)
	// Describe names the source in logs, e.g. "sheets:abc123!LinkedIn".
	Describe() string
}

// Factory builds a Source for each page definition.
type Factory struct {
	// Sheets is nil when no Google credentials are configured.
	Sheets               *sheets.Service
	DefaultSpreadsheetID string
	Timeout              time.Duration
	Logger               *slog.Logger
}

// For returns the Source described by def.
func (f *Factory) For(def config.SourceDefinition) (Source, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch def.Kind {
	case config.SourceSheets:
		if f.Sheets == nil {
			return nil, apperrors.NewConfigError("google sheets credentials are not configured", nil)
		}
		id := def.SpreadsheetID
		if id == "" {
			id = f.DefaultSpreadsheetID
		}
		if id == "" {
			return nil, apperrors.NewConfigError("spreadsheet id is missing", nil)
		}
		return &SheetsSource{
			Service:       f.Sheets,
			SpreadsheetID: id,
			Range:         def.Range,
			Timeout:       f.Timeout,
			logger:        logger.With(slog.String("component", "sheets_source")),
		}, nil
	case config.SourceXLSX:
		return &ExcelSource{Path: def.Path, Sheet: def.Sheet}, nil
	case config.SourceCSV:
		return &CSVSource{Path: def.Path}, nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported source kind %q", def.Kind), nil)
	}
}

// tableFromRows splits a grid into header and data rows. Leading blank rows
// are skipped; a grid without any non-blank row is an empty table.
func tableFromRows(rows [][]string) Table {
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		headers := make([]string, len(row))
		for j, h := range row {
			headers[j] = strings.TrimSpace(h)
		}
		return Table{Headers: headers, Rows: rows[i+1:]}
	}
	return Table{}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
