package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// OutreachHeaders is the header row of the outreach sheets.
func OutreachHeaders() []string {
	return []string{
		"Nombre", "Empresa", "Cargo", "Industria", "País", "Fuente", "Prospectador",
		"Avatar", "Campaña", "¿Invite Aceptada?", "Fecha Invite", "¿Primer Mensaje Enviado?",
		"Fecha Primer Mensaje", "¿Respuesta Primer Mensaje?", "¿Sesión Agendada?", "Fecha Sesión",
	}
}

// OutreachRows returns the header row followed by six prospects. With the
// built-in linkedin page they produce stage counts 4, 3, 2, 2:
//
//	Invite Accepted: rows 1, 2, 3, 5
//	First Message:   rows 1, 2, 5
//	Responded:       rows 1, 5
//	Meeting:         rows 1 ("vc"), 5
//
// Prospectors normalize to Maria Perez (3), Juan Soto (2) and N/D (1). Row 5
// has an unparseable invite date and row 6 an unrecognised flag ("maybe").
func OutreachRows() [][]string {
	return [][]string{
		OutreachHeaders(),
		{"ana lopez", "Acme", "CTO", "Tech", "Chile", "LinkedIn", "maria perez", "CTO", "Q1", "si", "05/01/2025", "si", "06/01/2025", "si", "vc", "10/01/2025"},
		{"Bruno Diaz", "Beta", "CEO", "Retail", "Peru", "LinkedIn", "Maria Perez", "CEO", "Q1", "Sí", "12/01/2025", "si", "13/01/2025", "no", "no", ""},
		{"Carla Ruiz", "Gamma", "CFO", "Tech", "", "Referral", "juan soto", "CFO", "Q2", "yes", "03/02/2025", "no", "", "", "", ""},
		{"Dario Mora", "Delta", "CTO", "nan", "Chile", "LinkedIn", "Juan Soto", "CTO", "Q2", "no", "04/02/2025", "no", "", "no", "no", ""},
		{"Elena Vega", "Epsilon", "COO", "Finance", "Mexico", "Event", "maria perez", "CTO", "Q1", "TRUE", "not a date", "1", "20/02/2025", "1", "si", "25/02/2025"},
		{"Felipe Rojas", "Zeta", "CTO", "Tech", "Chile", "LinkedIn", "", "CTO", "", "maybe", "01/03/2025", "", "", "", "", ""},
	}
}

// WriteWorkbook writes rows to a new workbook with a single sheet and returns
// its path inside t.TempDir().
func WriteWorkbook(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cell, &values))
	}

	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteFile writes content to name inside t.TempDir() and returns the path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
