package exporter

import (
	"fmt"
	"io"

	"github.com/johnfenner/beecker-sub000/internal/funnel"
	"github.com/johnfenner/beecker-sub000/pkg/contracts/domain"
)

// Export writes report in format f. With records set, CSV output holds
// the records instead of the summary and XLSX output gains a Records sheet.
func Export(w io.Writer, f Format, report *domain.FunnelReport, records []funnel.Record) error {
	if report == nil {
		return fmt.Errorf("export: nil report")
	}
	switch f {
	case FormatCSV:
		if records != nil {
			return WriteRecordsCSV(w, records, nil)
		}
		return WriteSummaryCSV(w, report)
	case FormatXLSX:
		return WriteWorkbook(w, report, records)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}
