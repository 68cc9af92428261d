package sources

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/johnfenner/beecker-sub000/internal/config"
	apperrors "github.com/johnfenner/beecker-sub000/internal/errors"
)

// NewSheetsService creates a read-only Google Sheets client from the
// configured credentials. Extra options are appended last, so they win.
func NewSheetsService(ctx context.Context, cfg config.SheetsConfig, extra ...option.ClientOption) (*sheets.Service, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case len(extra) == 0:
		return nil, apperrors.NewConfigError("no google sheets credentials configured", nil)
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	opts = append(opts, extra...)

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create sheets service", err)
	}
	return srv, nil
}

// SheetsSource reads a range of a Google spreadsheet using formatted values,
// i.e. the text a user sees in the cell.
type SheetsSource struct {
	Service       *sheets.Service
	SpreadsheetID string
	// Range is A1 notation or a bare sheet title.
	Range   string
	Timeout time.Duration

	logger *slog.Logger
}

// Describe implements Source.
func (s *SheetsSource) Describe() string {
	return fmt.Sprintf("sheets:%s!%s", s.SpreadsheetID, s.Range)
}

// Fetch implements Source.
func (s *SheetsSource) Fetch(ctx context.Context) (Table, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.Service.Spreadsheets.Values.Get(s.SpreadsheetID, s.Range).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		if ctx.Err() != nil {
			return Table{}, ctx.Err()
		}
		return Table{}, apperrors.NewSourceError("failed to read from sheets", err).
			WithContext("source", s.Describe())
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = cellsToStrings(row)
	}

	table := tableFromRows(rows)
	if s.logger != nil {
		s.logger.DebugContext(ctx, "sheet range fetched",
			slog.String("source", s.Describe()),
			slog.Int("rows", table.Len()),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return table, nil
}

func cellsToStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		if cell == nil {
			continue
		}
		if s, ok := cell.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(cell)
	}
	return out
}
