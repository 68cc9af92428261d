// Package shared holds helpers used by more than one package and owned by
// none of them.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//	- a capturing slog handler for asserting on log output
//	- outreach record fixtures shared by engine, service and handler tests
//	- workbook and CSV fixture writers backed by t.TempDir()
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteWorkbook(t, "LinkedIn", testutil.OutreachRows())
//	    // ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "rendered")
//	}
//
// Nothing in this package may be imported by production code.
package shared
