// Package exporter writes funnel reports and their records as CSV or XLSX.
//
// CSV output starts with a UTF-8 byte order mark so that Excel opens the
// Spanish headers correctly. XLSX output is built with excelize:
//
//	Funnel         stage, count, vs previous (%), vs total (%)
//	By <group>     one block per group value, when the report is grouped
//	Records        the filtered rows, when requested
//
// Example:
//
//	err := exporter.Export(w, exporter.FormatXLSX, report, nil)
package exporter
