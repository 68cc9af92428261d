// Package sources reads prospecting rows from Google Sheets, Excel workbooks
// and CSV exports and turns them into funnel records.
//
// Every reader returns a Table: the first non-blank row becomes the header
// and the remaining rows are kept as raw strings. No cleaning happens here;
// the funnel normalizers own that. ToRecords maps headers onto canonical
// field names using the page's column map.
//
// # Errors
//
// Read failures are returned as SOURCE application errors and malformed
// files as PARSING errors, so the HTTP layer can answer 502 or 422. An empty
// sheet is not an error; it yields an empty Table.
//
// # Usage
//
//	srv, err := sources.NewSheetsService(ctx, cfg.Sheets)
//	factory := &sources.Factory{Sheets: srv, DefaultSpreadsheetID: cfg.Sheets.DefaultSpreadsheetID}
//	src, err := factory.For(page.Source)
//	table, err := src.Fetch(ctx)
//	records := sources.ToRecords(table, page.Columns)
package sources
