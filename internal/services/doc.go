// Package services implements the business logic between the HTTP handlers
// and the page sources.
//
// # Render pipeline
//
// Every report is recomputed from the source on each call:
//
//	fetch -> ToRecords -> Page.Normalize -> filters.Apply -> funnel.Summarize
//	                                                      -> funnel.AggregateBy (optional)
//
// A single render runs on one goroutine. Overview renders several pages at
// once, bounded by the configured parallelism; a failing page is reported
// in Overview.Failed and does not fail the others.
//
// # Available Services
//
//	- FunnelService: page catalogue, funnel reports, filter options, records
//	- HealthService: liveness, readiness and version information
//
// # Error Handling
//
// Services return the sentinel errors in errors.go, wrapped with context.
// Handlers test them with errors.Is and translate them to HTTP problems.
//
// # Testing
//
// Sources are replaced by testify mocks:
//
//	src := new(MockSource)
//	src.On("Fetch", mock.Anything).Return(table, nil)
//	svc := NewFunnelService(registry, staticProvider{"linkedin": src}, logger)
package services
