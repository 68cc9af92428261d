// Package app wires the dashboard together: configuration, logging,
// OpenTelemetry, the page registry, the funnel and health services and the
// chi router.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML file, environment)
//	2. Initialize slog and OpenTelemetry
//	3. Create business metrics and runtime gauges
//	4. Load and compile page definitions
//	5. Build the source factory (Google Sheets only when a page needs it)
//	6. Create services, handlers and middleware
//	7. Serve until SIGINT or SIGTERM, then shut down gracefully
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use NewWithConfig with WithSourceProvider to serve fixture tables.
package app
