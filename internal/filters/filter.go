package filters

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/johnfenner/beecker-sub000/internal/funnel"
	"github.com/johnfenner/beecker-sub000/pkg/contracts/domain"
)

// DateLayout is the layout of From and To in requests and echoes.
const DateLayout = funnel.CanonicalDateLayout

// FilterableFields are the categorical fields that accept equality filters.
var FilterableFields = []string{
	funnel.FieldProspector,
	funnel.FieldCampaign,
	funnel.FieldCountry,
	funnel.FieldIndustry,
	funnel.FieldSource,
	funnel.FieldAvatar,
}

// DefaultQueryFields are searched by the free-text query.
var DefaultQueryFields = []string{funnel.FieldName, funnel.FieldCompany}

// Filter selects the records a report is computed over. The zero value
// keeps everything. A Filter is a plain value passed with each request.
type Filter struct {
	// DateField is the field From and To apply to.
	DateField string
	// From and To are inclusive calendar days; the zero time means open.
	From time.Time
	To   time.Time
	// Fields maps a field to the accepted values. A record passes when its
	// value equals any of them, ignoring case.
	Fields map[string][]string
	// Query is a case-insensitive substring searched in QueryFields.
	Query       string
	QueryFields []string
}

// HasDateRange reports whether a date bound is set.
func (f Filter) HasDateRange() bool {
	return !f.From.IsZero() || !f.To.IsZero()
}

// IsZero reports whether the filter keeps every record.
func (f Filter) IsZero() bool {
	if f.HasDateRange() || strings.TrimSpace(f.Query) != "" {
		return false
	}
	for _, values := range f.Fields {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Applied converts the filter to its JSON echo.
func (f Filter) Applied() domain.AppliedFilter {
	out := domain.AppliedFilter{Query: strings.TrimSpace(f.Query)}
	if !f.From.IsZero() {
		out.From = f.From.Format(DateLayout)
	}
	if !f.To.IsZero() {
		out.To = f.To.Format(DateLayout)
	}
	for field, values := range f.Fields {
		if len(values) == 0 {
			continue
		}
		if out.Fields == nil {
			out.Fields = make(map[string][]string)
		}
		out.Fields[field] = append([]string(nil), values...)
	}
	return out
}

// Apply returns the records that pass f, in input order. The input slice and
// its records are not modified. Date cells are read as
// funnel.CanonicalDateLayout first, then with dates, so both normalized and
// raw records filter correctly. When a date range is set, records whose date
// field cannot be parsed are excluded.
func Apply(records []funnel.Record, f Filter, dates funnel.DateParser) []funnel.Record {
	m := newMatcher(f, dates)
	out := make([]funnel.Record, 0, len(records))
	for _, rec := range records {
		if m.match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

type matcher struct {
	filter      Filter
	dates       funnel.DateParser
	from, until time.Time
	fields      map[string][]string
	query       string
	fold        cases.Caser
}

func newMatcher(f Filter, dates funnel.DateParser) *matcher {
	m := &matcher{filter: f, dates: dates, fold: cases.Fold()}
	if !f.From.IsZero() {
		m.from = startOfDay(f.From)
	}
	if !f.To.IsZero() {
		m.until = startOfDay(f.To).AddDate(0, 0, 1)
	}

	m.fields = make(map[string][]string, len(f.Fields))
	for field, values := range f.Fields {
		var clean []string
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				clean = append(clean, v)
			}
		}
		if len(clean) > 0 {
			m.fields[field] = clean
		}
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		m.query = m.fold.String(q)
	}
	return m
}

func (m *matcher) match(rec funnel.Record) bool {
	if m.filter.HasDateRange() {
		d, ok := m.dates.ParseStored(rec.Value(m.filter.DateField))
		if !ok {
			return false
		}
		if !m.from.IsZero() && d.Before(m.from) {
			return false
		}
		if !m.until.IsZero() && !d.Before(m.until) {
			return false
		}
	}

	for field, accepted := range m.fields {
		if !containsFold(accepted, strings.TrimSpace(rec.Value(field))) {
			return false
		}
	}

	if m.query != "" {
		fields := m.filter.QueryFields
		if len(fields) == 0 {
			fields = DefaultQueryFields
		}
		found := false
		for _, field := range fields {
			if strings.Contains(m.fold.String(rec.Value(field)), m.query) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Options returns the distinct non-empty values of field, sorted with
// Spanish collation so that accented names sort next to their base letter.
func Options(records []funnel.Record, field string) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		v := strings.TrimSpace(rec.Value(field))
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	collate.New(language.Spanish).SortStrings(values)
	return values
}
