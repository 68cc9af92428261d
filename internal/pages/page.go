package pages

import (
	"fmt"
	"sort"
	"strings"

	"github.com/johnfenner/beecker-sub000/internal/config"
	"github.com/johnfenner/beecker-sub000/internal/funnel"
	"github.com/johnfenner/beecker-sub000/pkg/contracts/domain"
)

// Page is a compiled page definition: the normalizers, date parser and
// funnel stages derived from the YAML once at startup.
type Page struct {
	def          config.PageDefinition
	booleans     funnel.BooleanNormalizer
	flagFields   []string
	categoricals map[string]funnel.CategoricalNormalizer
	dates        funnel.DateParser
	dateFields   []string
	stages       []funnel.Stage
	groupKeys    map[string]bool
}

// Compile validates def and builds its Page.
func Compile(def config.PageDefinition) (*Page, error) {
	if err := config.ValidatePages([]config.PageDefinition{def}); err != nil {
		return nil, err
	}

	p := &Page{
		def:          def,
		booleans:     funnel.NewBooleanNormalizer(nilIfEmpty(def.Booleans.Affirmative), nilIfEmpty(def.Booleans.Negative), def.Strict),
		categoricals: make(map[string]funnel.CategoricalNormalizer, len(def.Categoricals)),
		dates:        funnel.NewDateParser(def.DateLayouts),
		groupKeys:    make(map[string]bool, len(def.GroupBy)),
	}

	flags := newFieldSet(def.Booleans.Fields...)
	for _, st := range def.Stages {
		if st.Label == "" {
			flags.add(st.Field)
		}
		flags.add(st.AllOf...)
	}
	p.flagFields = flags.list

	for field, c := range def.Categoricals {
		if flags.has(field) {
			return nil, fmt.Errorf("page %q: field %q is both a stage flag and a categorical", def.ID, field)
		}
		p.categoricals[field] = funnel.NewCategoricalNormalizer(c.Default, nilIfEmpty(c.NullMarkers), c.TitleCase)
	}

	dates := newFieldSet(def.DateFields...)
	if def.DateField != "" {
		dates.add(def.DateField)
	}
	p.dateFields = dates.list

	for _, key := range def.GroupBy {
		if flags.has(key) || dates.has(key) {
			return nil, fmt.Errorf("page %q: cannot group by %q", def.ID, key)
		}
		p.groupKeys[key] = true
	}

	p.stages = make([]funnel.Stage, len(def.Stages))
	for i, st := range def.Stages {
		p.stages[i] = funnel.Stage{Name: st.Name, Predicate: p.predicate(st, flags)}
	}
	return p, nil
}

// CompileAll compiles every definition, keeping their order.
func CompileAll(defs []config.PageDefinition) ([]*Page, error) {
	if err := config.ValidatePages(defs); err != nil {
		return nil, err
	}
	out := make([]*Page, len(defs))
	for i, def := range defs {
		p, err := Compile(def)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (p *Page) predicate(st config.StageDefinition, flags *fieldSet) funnel.Predicate {
	var base funnel.Predicate
	switch {
	case st.Label == "":
		base = funnel.FieldIs(st.Field, funnel.LabelYes)
	case flags.has(st.Field):
		base = funnel.FieldIs(st.Field, p.booleans.Normalize(st.Label))
	default:
		base = funnel.FieldEqualsFold(st.Field, st.Label)
	}
	if len(st.AllOf) == 0 {
		return base
	}

	preds := []funnel.Predicate{base}
	for _, field := range st.AllOf {
		preds = append(preds, funnel.FieldIs(field, funnel.LabelYes))
	}
	return funnel.All(preds...)
}

// ID returns the page id.
func (p *Page) ID() string { return p.def.ID }

// Title returns the display title, falling back to the id.
func (p *Page) Title() string {
	if p.def.Title == "" {
		return p.def.ID
	}
	return p.def.Title
}

// Definition returns the definition the page was compiled from.
func (p *Page) Definition() config.PageDefinition { return p.def }

// Stages returns the funnel stages in display order.
func (p *Page) Stages() []funnel.Stage { return p.stages }

// DateField is the field date range filters apply to.
func (p *Page) DateField() string { return p.def.DateField }

// DateParser returns the parser configured for this page.
func (p *Page) DateParser() funnel.DateParser { return p.dates }

// GroupKeys returns the fields the page can be broken down by.
func (p *Page) GroupKeys() []string { return append([]string(nil), p.def.GroupBy...) }

// AllowsGroup reports whether key is one of GroupKeys.
func (p *Page) AllowsGroup(key string) bool { return p.groupKeys[key] }

// Info describes the page for the catalogue.
func (p *Page) Info(source string) domain.PageInfo {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.Name
	}
	return domain.PageInfo{
		ID:          p.ID(),
		Title:       p.Title(),
		Description: p.def.Description,
		Source:      source,
		Stages:      names,
		GroupBy:     p.GroupKeys(),
		DateField:   p.def.DateField,
	}
}

// Normalize returns cleaned copies of records. Stage flags become "Si" or
// "No", categorical fields are trimmed and defaulted, and parseable dates are
// rewritten as YYYY-MM-DD. Unparseable dates keep their raw text. The input
// is not modified. The returned DataQuality counts flag cells a strict page
// could not classify and non-empty date cells that failed to parse.
func (p *Page) Normalize(records []funnel.Record) ([]funnel.Record, domain.DataQuality) {
	quality := domain.NewDataQuality()
	out := make([]funnel.Record, len(records))

	for i, rec := range records {
		clean := make(funnel.Record, len(rec)+len(p.flagFields))
		for k, v := range rec {
			clean[k] = v
		}

		for _, field := range p.flagFields {
			label, recognized := p.booleans.Classify(rec.Value(field))
			clean[field] = label
			if !recognized {
				quality.UnrecognizedFlags[field]++
			}
		}

		for field, n := range p.categoricals {
			clean[field] = n.Normalize(rec.Value(field))
		}

		for _, field := range p.dateFields {
			raw := strings.TrimSpace(rec.Value(field))
			if raw == "" {
				continue
			}
			if t, ok := p.dates.ParseStored(raw); ok {
				clean[field] = t.Format(funnel.CanonicalDateLayout)
			} else {
				quality.UnparsedDates[field]++
			}
		}

		out[i] = clean
	}
	return out, quality
}

// fieldSet is an insertion-ordered set of field names.
type fieldSet struct {
	list []string
	seen map[string]bool
}

func newFieldSet(fields ...string) *fieldSet {
	s := &fieldSet{seen: make(map[string]bool)}
	s.add(fields...)
	return s
}

func (s *fieldSet) add(fields ...string) {
	for _, f := range fields {
		if f == "" || s.seen[f] {
			continue
		}
		s.seen[f] = true
		s.list = append(s.list, f)
	}
}

func (s *fieldSet) has(f string) bool { return s.seen[f] }

func nilIfEmpty(v []string) []string {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Registry looks pages up by id and keeps their configured order.
type Registry struct {
	pages []*Page
	byID  map[string]*Page
}

// NewRegistry indexes pages.
func NewRegistry(pages []*Page) *Registry {
	r := &Registry{pages: pages, byID: make(map[string]*Page, len(pages))}
	for _, p := range pages {
		r.byID[p.ID()] = p
	}
	return r
}

// Get returns the page with id.
func (r *Registry) Get(id string) (*Page, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// All returns pages in configured order.
func (r *Registry) All() []*Page { return r.pages }

// IDs returns the page ids sorted alphabetically.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
