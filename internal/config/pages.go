package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Source kinds understood by the ingestion layer.
const (
	SourceSheets = "sheets"
	SourceXLSX   = "xlsx"
	SourceCSV    = "csv"
)

// PageDefinition describes one dashboard page purely as data: where its rows
// come from, how raw cells are cleaned and which funnel stages it reports.
type PageDefinition struct {
	ID          string           `yaml:"id"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Source      SourceDefinition `yaml:"source"`
	// Columns maps a sheet header onto a canonical field name.
	Columns      map[string]string                `yaml:"columns"`
	Booleans     BooleanDefinition                `yaml:"booleans"`
	Categoricals map[string]CategoricalDefinition `yaml:"categoricals"`
	Stages       []StageDefinition                `yaml:"stages"`
	GroupBy      []string                         `yaml:"group_by"`
	DateField    string                           `yaml:"date_field"`
	DateFields   []string                         `yaml:"date_fields"`
	DateLayouts  []string                         `yaml:"date_layouts"`
	// Strict counts stage flags that are neither affirmative nor negative.
	Strict bool `yaml:"strict"`
}

// SourceDefinition locates the rows of a page.
type SourceDefinition struct {
	Kind          string `yaml:"kind"`
	SpreadsheetID string `yaml:"spreadsheet_id"`
	Range         string `yaml:"range"`
	Path          string `yaml:"path"`
	Sheet         string `yaml:"sheet"`
}

// BooleanDefinition lists the stage-flag fields and optional token overrides.
type BooleanDefinition struct {
	Fields      []string `yaml:"fields"`
	Affirmative []string `yaml:"affirmative"`
	Negative    []string `yaml:"negative"`
}

// CategoricalDefinition configures cleaning of one open categorical field.
type CategoricalDefinition struct {
	Default     string   `yaml:"default"`
	TitleCase   bool     `yaml:"title_case"`
	NullMarkers []string `yaml:"null_markers"`
}

// StageDefinition is one funnel stage. A record reaches the stage when Field
// normalizes to Label ("Si" when empty) and every AllOf field is "Si".
type StageDefinition struct {
	Name  string   `yaml:"name"`
	Field string   `yaml:"field"`
	Label string   `yaml:"label"`
	AllOf []string `yaml:"all_of"`
}

type pagesFile struct {
	Pages []PageDefinition `yaml:"pages"`
}

// LoadPages reads page definitions from a YAML file, or returns the built-in
// pages when path is empty.
func LoadPages(path string) ([]PageDefinition, error) {
	if path == "" {
		return DefaultPages(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pages file: %w", err)
	}

	var file pagesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pages file %s: %w", path, err)
	}

	if err := ValidatePages(file.Pages); err != nil {
		return nil, err
	}
	return file.Pages, nil
}

// ValidatePages checks the structural rules every page must follow.
func ValidatePages(pages []PageDefinition) error {
	if len(pages) == 0 {
		return fmt.Errorf("no pages defined")
	}

	seen := make(map[string]bool, len(pages))
	for i, p := range pages {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("page %d: id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("page %q: duplicate id", p.ID)
		}
		seen[p.ID] = true

		switch p.Source.Kind {
		case SourceSheets:
			// Spreadsheet id may come from sheets.default_spreadsheet_id.
		case SourceXLSX, SourceCSV:
			if p.Source.Path == "" {
				return fmt.Errorf("page %q: source path is required for %s", p.ID, p.Source.Kind)
			}
		default:
			return fmt.Errorf("page %q: unsupported source kind %q", p.ID, p.Source.Kind)
		}

		if len(p.Stages) == 0 {
			return fmt.Errorf("page %q: at least one stage is required", p.ID)
		}
		for j, st := range p.Stages {
			if st.Name == "" || st.Field == "" {
				return fmt.Errorf("page %q: stage %d needs a name and a field", p.ID, j)
			}
		}
	}
	return nil
}

// spanishColumns is the header layout shared by the outreach sheets.
func spanishColumns() map[string]string {
	return map[string]string{
		"Nombre":                     "name",
		"Empresa":                    "company",
		"Cargo":                      "role",
		"Industria":                  "industry",
		"País":                       "country",
		"Fuente":                     "source",
		"Prospectador":               "prospector",
		"Avatar":                     "avatar",
		"Campaña":                    "campaign",
		"¿Invite Aceptada?":          "invite_accepted",
		"Fecha Invite":               "invite_date",
		"¿Primer Mensaje Enviado?":   "first_message_sent",
		"Fecha Primer Mensaje":       "first_message_date",
		"¿Respuesta Primer Mensaje?": "first_message_responded",
		"¿Sesión Agendada?":          "meeting_scheduled",
		"Fecha Sesión":               "meeting_date",
	}
}

func defaultCategoricals() map[string]CategoricalDefinition {
	return map[string]CategoricalDefinition{
		"name":       {TitleCase: true},
		"company":    {},
		"role":       {},
		"industry":   {},
		"country":    {},
		"source":     {},
		"prospector": {TitleCase: true},
		"avatar":     {},
		"campaign":   {},
	}
}

// DefaultPages returns the built-in pages. Their spreadsheet ids are taken
// from sheets.default_spreadsheet_id.
func DefaultPages() []PageDefinition {
	flags := BooleanDefinition{Fields: []string{
		"invite_accepted", "first_message_sent", "first_message_responded", "meeting_scheduled",
	}}
	dates := []string{"invite_date", "first_message_date", "meeting_date"}

	return []PageDefinition{
		{
			ID:           "linkedin",
			Title:        "LinkedIn Outreach",
			Description:  "Invites accepted through meetings booked, per prospector and campaign.",
			Source:       SourceDefinition{Kind: SourceSheets, Range: "LinkedIn"},
			Columns:      spanishColumns(),
			Booleans:     flags,
			Categoricals: defaultCategoricals(),
			Stages: []StageDefinition{
				{Name: "Invite Accepted", Field: "invite_accepted"},
				{Name: "First Message", Field: "first_message_sent"},
				{Name: "Responded", Field: "first_message_responded"},
				{Name: "Meeting", Field: "meeting_scheduled"},
			},
			GroupBy:    []string{"prospector", "campaign", "avatar", "country", "industry"},
			DateField:  "invite_date",
			DateFields: dates,
		},
		{
			ID:           "sdr",
			Title:        "SDR Pipeline",
			Description:  "Contacted, responded and meeting counts for the SDR team.",
			Source:       SourceDefinition{Kind: SourceSheets, Range: "SDR"},
			Columns:      spanishColumns(),
			Booleans:     flags,
			Categoricals: defaultCategoricals(),
			Stages: []StageDefinition{
				{Name: "Contacted", Field: "first_message_sent"},
				{Name: "Responded", Field: "first_message_responded"},
				{Name: "Meeting", Field: "meeting_scheduled"},
			},
			GroupBy:    []string{"prospector", "source", "country", "industry"},
			DateField:  "first_message_date",
			DateFields: dates,
		},
		{
			ID:           "sessions",
			Title:        "Prospecting Sessions",
			Description:  "Invite to session conversion by avatar.",
			Source:       SourceDefinition{Kind: SourceSheets, Range: "Sesiones"},
			Columns:      spanishColumns(),
			Booleans:     flags,
			Categoricals: defaultCategoricals(),
			Stages: []StageDefinition{
				{Name: "Invite", Field: "invite_accepted"},
				{Name: "Message", Field: "first_message_sent"},
				{Name: "Response", Field: "first_message_responded"},
				{Name: "Session", Field: "meeting_scheduled"},
			},
			GroupBy:    []string{"avatar", "prospector", "campaign"},
			DateField:  "meeting_date",
			DateFields: dates,
		},
	}
}
