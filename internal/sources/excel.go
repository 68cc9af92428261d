package sources

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/johnfenner/beecker-sub000/internal/errors"
)

// ExcelSource reads one worksheet of an .xlsx workbook. When Sheet is empty
// the first worksheet holding a non-blank row is used.
type ExcelSource struct {
	Path  string
	Sheet string
}

// Describe implements Source.
func (s *ExcelSource) Describe() string {
	if s.Sheet == "" {
		return "xlsx:" + s.Path
	}
	return fmt.Sprintf("xlsx:%s!%s", s.Path, s.Sheet)
}

// Fetch implements Source.
func (s *ExcelSource) Fetch(ctx context.Context) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return Table{}, apperrors.NewSourceError("failed to open workbook", err).
			WithContext("path", s.Path)
	}
	defer f.Close()

	if s.Sheet != "" {
		rows, err := f.GetRows(s.Sheet)
		if err != nil {
			return Table{}, apperrors.NewSourceError(fmt.Sprintf("failed to read sheet %q", s.Sheet), err).
				WithContext("path", s.Path)
		}
		return tableFromRows(rows), nil
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if table := tableFromRows(rows); len(table.Headers) > 0 {
			return table, nil
		}
	}
	return Table{}, nil
}
