// Package http implements the HTTP handlers of the prospecting dashboard.
// Handlers stay thin: they decode the query string, validate it, call the
// funnel service and render the result.
//
// # Routes
//
//	GET /api/health                      liveness summary
//	GET /api/health/live                 runtime details
//	GET /api/health/ready                503 until every page has a source
//	GET /api/version                     build information
//	GET /api/pages                       page catalogue
//	GET /api/pages/{page}                one catalogue entry
//	GET /api/pages/{page}/funnel         stage counts and conversion rates
//	GET /api/pages/{page}/options/{f}    distinct values of a filter field
//	GET /api/pages/{page}/export         CSV or XLSX download
//	GET /api/overview                    every page with one filter
//
// # Query Parameters
//
// from and to are inclusive YYYY-MM-DD days applied to the page date
// field. prospector, campaign, country, industry, source and avatar accept
// repeated parameters or comma separated lists and match ignoring case.
// q searches name and company. group_by adds one funnel per value.
//
// # Error Handling
//
// Errors are rendered as RFC 7807 problems by internal/errors:
//
//	{
//	    "type": "/errors/page/not-found",
//	    "title": "Not Found",
//	    "status": 404,
//	    "detail": "Page billing not found",
//	    "instance": "/api/pages/billing/funnel",
//	    "error_code": "PAGE_NOT_FOUND"
//	}
//
// A source that cannot be read answers 502 and a timed out render 504.
package http
