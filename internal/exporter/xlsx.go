package exporter

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/johnfenner/beecker-sub000/internal/funnel"
	"github.com/johnfenner/beecker-sub000/pkg/contracts/domain"
)

// Sheet names
const (
	SheetFunnel  = "Funnel"
	SheetRecords = "Records"

	maxSheetName = 31
)

// WriteSummaryXLSX writes report as a workbook without a Records sheet
func WriteSummaryXLSX(w io.Writer, report *domain.FunnelReport) error {
	return WriteWorkbook(w, report, nil)
}

// WriteWorkbook writes report to w. Records, when non-empty, get their own
// sheet.
func WriteWorkbook(w io.Writer, report *domain.FunnelReport, records []funnel.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetFunnel); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	rows := [][]interface{}{
		{report.Title},
		toCells(SummaryHeaders),
	}
	rows = append(rows, stageCells(report.Stages, report.Rates, report.RatesVsTotal)...)
	if err := writeRows(f, SheetFunnel, rows, bold, 1, 2); err != nil {
		return err
	}

	if report.GroupBy != "" {
		sheet := GroupSheetName(report.GroupBy)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		header := append([]interface{}{report.GroupBy, "Records"}, toCells(SummaryHeaders)...)
		grows := [][]interface{}{header}
		for _, g := range report.Groups {
			for _, sc := range stageCells(g.Stages, g.Rates, g.RatesVsTotal) {
				grows = append(grows, append([]interface{}{escapeCell(g.Key), g.RecordCount}, sc...))
			}
		}
		if err := writeRows(f, sheet, grows, bold, 1); err != nil {
			return err
		}
	}

	if len(records) > 0 {
		if _, err := f.NewSheet(SheetRecords); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", SheetRecords, err)
		}
		cols := RecordColumns(records)
		rrows := make([][]interface{}, 0, len(records)+1)
		rrows = append(rrows, toCells(cols))
		for _, rec := range records {
			rrows = append(rrows, toCells(recordRow(rec, cols)))
		}
		if err := writeRows(f, SheetRecords, rrows, bold, 1); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// GroupSheetName returns "By <group>" cut to the sheet name limit
func GroupSheetName(group string) string {
	name := "By " + group
	for utf8.RuneCountInString(name) > maxSheetName {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return name
}

// writeRows writes rows from A1 down and bolds the listed 1-based rows
func writeRows(f *excelize.File, sheet string, rows [][]interface{}, style int, boldRows ...int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	for _, r := range boldRows {
		if r > len(rows) || len(rows[r-1]) == 0 {
			continue
		}
		first, _ := excelize.CoordinatesToCellName(1, r)
		last, _ := excelize.CoordinatesToCellName(len(rows[r-1]), r)
		if err := f.SetCellStyle(sheet, first, last, style); err != nil {
			return fmt.Errorf("failed to style %s row %d: %w", sheet, r, err)
		}
	}
	return nil
}

func stageCells(stages []domain.StageCount, rates, vsTotal []domain.Rate) [][]interface{} {
	rows := make([][]interface{}, len(stages))
	for i, sc := range stages {
		rows[i] = []interface{}{sc.Name, sc.Count, rateAt(rates, i), rateAt(vsTotal, i)}
	}
	return rows
}

func rateAt(rates []domain.Rate, i int) interface{} {
	if i >= len(rates) {
		return nil
	}
	return rates[i].Percentage
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
