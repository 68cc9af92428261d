// Package api contains the request contracts of the dashboard HTTP API.
// Version v1 is the current API version.
package api

// DateRangeRequest represents a date range in requests
type DateRangeRequest struct {
	From string `json:"from" query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" query:"to" validate:"omitempty,datetime=2006-01-02"`
}

// FunnelQuery is the query string accepted by the funnel, export and
// overview endpoints. Multi-valued fields accept repeated parameters or a
// comma separated list.
type FunnelQuery struct {
	DateRangeRequest
	Prospector []string `json:"prospector,omitempty" query:"prospector" validate:"omitempty,dive,max=200"`
	Campaign   []string `json:"campaign,omitempty" query:"campaign" validate:"omitempty,dive,max=200"`
	Country    []string `json:"country,omitempty" query:"country" validate:"omitempty,dive,max=200"`
	Industry   []string `json:"industry,omitempty" query:"industry" validate:"omitempty,dive,max=200"`
	Source     []string `json:"source,omitempty" query:"source" validate:"omitempty,dive,max=200"`
	Avatar     []string `json:"avatar,omitempty" query:"avatar" validate:"omitempty,dive,max=200"`
	Query      string   `json:"q,omitempty" query:"q" validate:"omitempty,max=200"`
	GroupBy    string   `json:"group_by,omitempty" query:"group_by" validate:"omitempty,max=64"`
}

// ExportRequest adds the output format to a FunnelQuery
type ExportRequest struct {
	FunnelQuery
	Format string `json:"format" query:"format" validate:"required,oneof=csv xlsx"`
	// Rows switches the CSV export from the stage summary to the filtered rows.
	Rows bool `json:"rows,omitempty" query:"rows"`
}
