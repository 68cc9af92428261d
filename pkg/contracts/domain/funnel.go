// Package domain holds the JSON shapes returned by the dashboard API and
// written by the exporters.
package domain

import (
	"time"
)

// StageCount is the number of records that reached a funnel stage
type StageCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Rate is a conversion percentage between two stages
type Rate struct {
	Transition string  `json:"transition"`
	Percentage float64 `json:"percentage"`
}

// FunnelReport is one rendered dashboard page
type FunnelReport struct {
	Page         string        `json:"page"`
	Title        string        `json:"title"`
	GeneratedAt  time.Time     `json:"generated_at"`
	RecordCount  int           `json:"record_count"`
	Filters      AppliedFilter `json:"filters"`
	Stages       []StageCount  `json:"stages"`
	Rates        []Rate        `json:"rates"`
	RatesVsTotal []Rate        `json:"rates_vs_total"`
	// GroupBy is empty when no breakdown was requested.
	GroupBy     string        `json:"group_by,omitempty"`
	Groups      []GroupReport `json:"groups,omitempty"`
	DataQuality DataQuality   `json:"data_quality"`
	// Empty is true when every stage count is zero.
	Empty bool `json:"empty"`
}

// GroupReport is the funnel of one group value
type GroupReport struct {
	Key          string       `json:"key"`
	RecordCount  int          `json:"record_count"`
	Stages       []StageCount `json:"stages"`
	Rates        []Rate       `json:"rates"`
	RatesVsTotal []Rate       `json:"rates_vs_total"`
}

// DataQuality counts cells the normalizers could not interpret. Keys are
// canonical field names.
type DataQuality struct {
	UnrecognizedFlags map[string]int `json:"unrecognized_flags"`
	UnparsedDates     map[string]int `json:"unparsed_dates"`
}

// NewDataQuality returns a DataQuality with non-nil maps
func NewDataQuality() DataQuality {
	return DataQuality{
		UnrecognizedFlags: map[string]int{},
		UnparsedDates:     map[string]int{},
	}
}

// Total returns the number of problem cells
func (q DataQuality) Total() int {
	n := 0
	for _, c := range q.UnrecognizedFlags {
		n += c
	}
	for _, c := range q.UnparsedDates {
		n += c
	}
	return n
}

// AppliedFilter echoes the filter a report was rendered with
type AppliedFilter struct {
	From   string              `json:"from,omitempty"`
	To     string              `json:"to,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
	Query  string              `json:"q,omitempty"`
}

// PageInfo describes a dashboard page in the catalogue
type PageInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source"`
	Stages      []string `json:"stages"`
	GroupBy     []string `json:"group_by"`
	DateField   string   `json:"date_field,omitempty"`
}

// Overview is every page rendered with the same filter
type Overview struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Pages       []FunnelReport `json:"pages"`
	// Failed maps page id to the error that prevented its render.
	Failed map[string]string `json:"failed,omitempty"`
}

// FilterOptions lists the distinct values of a field for filter widgets
type FilterOptions struct {
	Page   string   `json:"page"`
	Field  string   `json:"field"`
	Values []string `json:"values"`
}
