package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/johnfenner/beecker-sub000/internal/funnel"
	"github.com/johnfenner/beecker-sub000/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SummaryHeaders heads the stage table of every summary export
var SummaryHeaders = []string{"Stage", "Count", "Vs previous (%)", "Vs total (%)"}

// canonicalOrder is the column order of record exports; other fields
// follow alphabetically.
var canonicalOrder = []string{
	funnel.FieldName, funnel.FieldCompany, funnel.FieldRole, funnel.FieldIndustry,
	funnel.FieldCountry, funnel.FieldSource, funnel.FieldProspector, funnel.FieldAvatar,
	funnel.FieldCampaign,
	funnel.FieldInviteAccepted, funnel.FieldInviteDate,
	funnel.FieldFirstMessageSent, funnel.FieldFirstMessageDate,
	funnel.FieldFirstMessageResponded,
	funnel.FieldMeetingScheduled, funnel.FieldMeetingDate,
}

// WriteSummaryCSV writes the stage table of report. A grouped report gets a
// second table after a blank line, one row per group and stage.
func WriteSummaryCSV(w io.Writer, report *domain.FunnelReport) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	if err := cw.WriteAll(stageRows(report.Stages, report.Rates, report.RatesVsTotal)); err != nil {
		return fmt.Errorf("failed to write stages: %w", err)
	}

	if report.GroupBy != "" {
		rows := [][]string{{}, append([]string{report.GroupBy, "Records"}, SummaryHeaders...)}
		for _, g := range report.Groups {
			for _, row := range stageRows(g.Stages, g.Rates, g.RatesVsTotal) {
				rows = append(rows, append([]string{escapeCell(g.Key), strconv.Itoa(g.RecordCount)}, row...))
			}
		}
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("failed to write groups: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRecordsCSV writes records with one column per field. A nil columns
// slice uses RecordColumns.
func WriteRecordsCSV(w io.Writer, records []funnel.Record, columns []string) error {
	if columns == nil {
		columns = RecordColumns(records)
	}
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(recordRow(rec, columns)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// RecordColumns returns every field present in records, canonical fields
// first.
func RecordColumns(records []funnel.Record) []string {
	present := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			present[k] = true
		}
	}

	cols := make([]string, 0, len(present))
	for _, f := range canonicalOrder {
		if present[f] {
			cols = append(cols, f)
			delete(present, f)
		}
	}
	rest := make([]string, 0, len(present))
	for f := range present {
		rest = append(rest, f)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

func stageRows(stages []domain.StageCount, rates, vsTotal []domain.Rate) [][]string {
	rows := make([][]string, len(stages))
	for i, sc := range stages {
		rows[i] = []string{sc.Name, strconv.Itoa(sc.Count), percentAt(rates, i), percentAt(vsTotal, i)}
	}
	return rows
}

func percentAt(rates []domain.Rate, i int) string {
	if i >= len(rates) {
		return ""
	}
	return formatPercent(rates[i].Percentage)
}

func recordRow(rec funnel.Record, columns []string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = escapeCell(rec.Value(c))
	}
	return row
}

// escapeCell prefixes v with a quote when a spreadsheet would read it as a
// formula.
func escapeCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}
