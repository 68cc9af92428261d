package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format is an export file format
type Format string

// Supported formats
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename builds a download name such as linkedin-funnel-20250310.csv
func Filename(pageID string, rows bool, f Format, at time.Time) string {
	kind := "funnel"
	if rows {
		kind = "records"
	}
	return fmt.Sprintf("%s-%s-%s.%s", pageID, kind, at.Format("20060102"), f)
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}
