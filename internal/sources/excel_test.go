package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/johnfenner/beecker-sub000/internal/errors"
	"github.com/johnfenner/beecker-sub000/internal/shared/testutil"
)

func TestExcelSource_Fetch(t *testing.T) {
	path := testutil.WriteWorkbook(t, "LinkedIn", testutil.OutreachRows())

	tests := []struct {
		name  string
		sheet string
	}{
		{name: "named sheet", sheet: "LinkedIn"},
		{name: "first sheet", sheet: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := (&ExcelSource{Path: path, Sheet: tt.sheet}).Fetch(context.Background())

			require.NoError(t, err)
			assert.Equal(t, testutil.OutreachHeaders(), table.Headers)
			assert.Equal(t, 6, table.Len())
			assert.Equal(t, "ana lopez", table.Rows[0][0])
		})
	}
}

func TestExcelSource_SkipsBlankSheets(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Data", "A3", &[]interface{}{"Nombre", "País"}))
	require.NoError(t, f.SetSheetRow("Data", "A4", &[]interface{}{"Ana", "Chile"}))
	path := t.TempDir() + "/blank-first.xlsx"
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := (&ExcelSource{Path: path}).Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Nombre", "País"}, table.Headers)
	assert.Equal(t, [][]string{{"Ana", "Chile"}}, table.Rows)
}

func TestExcelSource_Errors(t *testing.T) {
	path := testutil.WriteWorkbook(t, "LinkedIn", testutil.OutreachRows())

	_, err := (&ExcelSource{Path: path, Sheet: "Missing"}).Fetch(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSource))

	_, err = (&ExcelSource{Path: testutil.WriteFile(t, "x.xlsx", "not a zip")}).Fetch(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSource))
}
