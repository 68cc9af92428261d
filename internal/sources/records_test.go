package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnfenner/beecker-sub000/internal/funnel"
)

func TestHeaderKey(t *testing.T) {
	assert.Equal(t, "¿invite aceptada?", HeaderKey("  ¿Invite   Aceptada? "))
	assert.Equal(t, "país", HeaderKey("PAÍS"))
	assert.Equal(t, "", HeaderKey("   "))
}

func TestToRecords(t *testing.T) {
	table := Table{
		Headers: []string{"Nombre", " prospectador ", "Notas", "", "Nombre", "¿Sesión  Agendada?"},
		Rows: [][]string{
			{"Ana", "Maria", "ignored", "x", "dup", "si"},
			{"", "", "", "", "", ""},
			{"Bruno"},
			{"Carla", "Juan", "", "", "", "no", "extra"},
		},
	}
	columns := map[string]string{
		"nombre":            funnel.FieldName,
		"Prospectador":      funnel.FieldProspector,
		"¿Sesión Agendada?": funnel.FieldMeetingScheduled,
	}

	records := ToRecords(table, columns)

	require.Len(t, records, 3, "blank row is skipped")
	assert.Equal(t, funnel.Record{
		funnel.FieldName:             "Ana",
		funnel.FieldProspector:       "Maria",
		funnel.FieldMeetingScheduled: "si",
	}, records[0], "leftmost duplicate header wins and unknown headers are dropped")
	assert.Equal(t, funnel.Record{
		funnel.FieldName:             "Bruno",
		funnel.FieldProspector:       "",
		funnel.FieldMeetingScheduled: "",
	}, records[1], "short rows read as empty cells")
	assert.Equal(t, "no", records[2].Value(funnel.FieldMeetingScheduled))
}

func TestToRecords_NilColumnsKeepsEveryHeader(t *testing.T) {
	table := Table{
		Headers: []string{"Invite Accepted", "Country"},
		Rows:    [][]string{{"si", "Chile"}},
	}

	records := ToRecords(table, nil)

	require.Len(t, records, 1)
	assert.Equal(t, funnel.Record{"invite_accepted": "si", "country": "Chile"}, records[0])
}

func TestToRecords_EmptyInputs(t *testing.T) {
	assert.Empty(t, ToRecords(Table{}, nil))
	assert.Empty(t, ToRecords(Table{Headers: []string{"Other"}, Rows: [][]string{{"a"}}}, map[string]string{"Nombre": "name"}))
	assert.NotNil(t, ToRecords(Table{}, nil))
}

func TestTableFromRows(t *testing.T) {
	table := tableFromRows([][]string{
		{"", " "},
		{" Nombre ", "País"},
		{"Ana", "Chile"},
	})

	assert.Equal(t, []string{"Nombre", "País"}, table.Headers)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, Table{}, tableFromRows([][]string{{""}, {}}))
}
