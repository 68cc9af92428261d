package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnfenner/beecker-sub000/internal/funnel"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleRecords() []funnel.Record {
	return []funnel.Record{
		{"name": "Ana López", "company": "Acme", "prospector": "Maria Perez", "country": "Chile", "invite_date": "2025-01-05"},
		{"name": "Bruno Diaz", "company": "Beta", "prospector": "Maria Perez", "country": "Peru", "invite_date": "12/01/2025 14:30"},
		{"name": "Carla Ruiz", "company": "Gamma", "prospector": "Juan Soto", "country": "N/D", "invite_date": "2025-02-03"},
		{"name": "Dario Mora", "company": "ACME Labs", "prospector": "Juan Soto", "country": "Chile", "invite_date": "not a date"},
		{"name": "Elena Vega", "company": "Epsilon", "prospector": "N/D", "country": "Mexico"},
	}
}

func names(records []funnel.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Value("name")
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "zero filter keeps everything",
			filter: Filter{},
			want:   []string{"Ana López", "Bruno Diaz", "Carla Ruiz", "Dario Mora", "Elena Vega"},
		},
		{
			name:   "date range is inclusive and drops unparsed dates",
			filter: Filter{DateField: "invite_date", From: day(2025, 1, 5), To: day(2025, 1, 12)},
			want:   []string{"Ana López", "Bruno Diaz"},
		},
		{
			name:   "open ended from",
			filter: Filter{DateField: "invite_date", From: day(2025, 1, 13)},
			want:   []string{"Carla Ruiz"},
		},
		{
			name:   "open ended to",
			filter: Filter{DateField: "invite_date", To: day(2025, 1, 11)},
			want:   []string{"Ana López"},
		},
		{
			name:   "equality set ignores case",
			filter: Filter{Fields: map[string][]string{"prospector": {"maria perez"}}},
			want:   []string{"Ana López", "Bruno Diaz"},
		},
		{
			name:   "several values are alternatives",
			filter: Filter{Fields: map[string][]string{"country": {"Peru", "N/D"}}},
			want:   []string{"Bruno Diaz", "Carla Ruiz"},
		},
		{
			name: "different fields are all required",
			filter: Filter{Fields: map[string][]string{
				"country":    {"Chile"},
				"prospector": {"Juan Soto"},
			}},
			want: []string{"Dario Mora"},
		},
		{
			name:   "blank values are ignored",
			filter: Filter{Fields: map[string][]string{"country": {" ", ""}}},
			want:   []string{"Ana López", "Bruno Diaz", "Carla Ruiz", "Dario Mora", "Elena Vega"},
		},
		{
			name:   "query searches name and company",
			filter: Filter{Query: " acme "},
			want:   []string{"Ana López", "Dario Mora"},
		},
		{
			name:   "query folds unicode case",
			filter: Filter{Query: "LÓPEZ"},
			want:   []string{"Ana López"},
		},
		{
			name:   "query on custom fields",
			filter: Filter{Query: "peru", QueryFields: []string{"country"}},
			want:   []string{"Bruno Diaz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(sampleRecords(), tt.filter, funnel.NewDateParser(nil))
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	records := sampleRecords()
	before := sampleRecords()

	out := Apply(records, Filter{Fields: map[string][]string{"country": {"Chile"}}}, funnel.NewDateParser(nil))
	require.Len(t, out, 2)

	assert.Equal(t, before, records)
	assert.Empty(t, Apply(nil, Filter{Query: "x"}, funnel.NewDateParser(nil)))
}

func TestFilter_IsZeroAndApplied(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.True(t, Filter{Fields: map[string][]string{"country": nil}}.IsZero())
	assert.False(t, Filter{Query: "a"}.IsZero())
	assert.False(t, Filter{To: day(2025, 1, 1)}.IsZero())

	f := Filter{
		From:   day(2025, 1, 1),
		Fields: map[string][]string{"country": {"Chile"}, "avatar": {}},
		Query:  " acme ",
	}
	applied := f.Applied()
	assert.Equal(t, "2025-01-01", applied.From)
	assert.Empty(t, applied.To)
	assert.Equal(t, map[string][]string{"country": {"Chile"}}, applied.Fields)
	assert.Equal(t, "acme", applied.Query)
}

func TestOptions(t *testing.T) {
	records := []funnel.Record{
		{"country": "Perú"},
		{"country": "Chile"},
		{"country": " Chile "},
		{"country": "Ñuble"},
		{"country": "Nicaragua"},
		{"country": ""},
		{"other": "x"},
		{"country": "Oman"},
	}

	assert.Equal(t, []string{"Chile", "Nicaragua", "Ñuble", "Oman", "Perú"}, Options(records, "country"))
	assert.Empty(t, Options(nil, "country"))
}

func TestApply_NormalizedDatesWithPageLayouts(t *testing.T) {
	dotted := funnel.NewDateParser([]string{"02.01.2006"})
	records := []funnel.Record{
		{"name": "normalized", "invite_date": "2025-03-05"},
		{"name": "raw", "invite_date": "06.03.2025"},
		{"name": "outside", "invite_date": "2025-04-01"},
	}
	f := Filter{DateField: "invite_date", From: day(2025, time.March, 1), To: day(2025, time.March, 31)}

	assert.Equal(t, []string{"normalized", "raw"}, names(Apply(records, f, dotted)))
}
