package funnel

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultAffirmativeTokens are the raw values read as a positive stage flag.
// "vc" is how the outreach sheets mark a video call that already happened.
var DefaultAffirmativeTokens = []string{"si", "sí", "yes", "true", "1", "vc"}

// DefaultNegativeTokens are the raw values read as an explicit negative. They
// only matter in strict mode; outside it every non-affirmative value is "No".
var DefaultNegativeTokens = []string{"no", "false", "0", "nan", "none", "n/d", ""}

// DefaultNullMarkers are categorical values treated as missing.
var DefaultNullMarkers = []string{"", "nan", "none", "n/d"}

// NormalizeBooleanLike maps any raw cell value onto "Si" or "No" using the
// default affirmative tokens. It is total: unknown input is "No".
func NormalizeBooleanLike(raw string) string {
	return defaultBoolean.Normalize(raw)
}

// NormalizeCategorical returns the trimmed value, or def when the cell is
// empty or one of the default null markers.
func NormalizeCategorical(raw, def string) string {
	return CategoricalNormalizer{Default: def, NullMarkers: defaultNullMarkers}.Normalize(raw)
}

var (
	defaultBoolean     = NewBooleanNormalizer(nil, nil, false)
	defaultNullMarkers = NewTokenSet(DefaultNullMarkers...)
)

// BooleanNormalizer converts raw stage-flag cells into canonical labels with
// caller supplied token sets. The zero value treats nothing as affirmative;
// use NewBooleanNormalizer.
type BooleanNormalizer struct {
	Affirmative TokenSet
	Negative    TokenSet
	// Strict makes Classify report values found in neither set.
	Strict bool
}

// NewBooleanNormalizer builds a normalizer. Nil token lists fall back to the
// defaults.
func NewBooleanNormalizer(affirmative, negative []string, strict bool) BooleanNormalizer {
	if affirmative == nil {
		affirmative = DefaultAffirmativeTokens
	}
	if negative == nil {
		negative = DefaultNegativeTokens
	}
	return BooleanNormalizer{
		Affirmative: NewTokenSet(affirmative...),
		Negative:    NewTokenSet(negative...),
		Strict:      strict,
	}
}

// Normalize returns "Si" for affirmative values and "No" for everything else.
func (n BooleanNormalizer) Normalize(raw string) string {
	if n.Affirmative.Contains(raw) {
		return LabelYes
	}
	return LabelNo
}

// Classify returns the canonical label and whether the raw value was
// recognised. Outside strict mode every value counts as recognised. The
// label is identical to Normalize in both modes.
func (n BooleanNormalizer) Classify(raw string) (string, bool) {
	if n.Affirmative.Contains(raw) {
		return LabelYes, true
	}
	if !n.Strict {
		return LabelNo, true
	}
	// Canonical labels are recognised so that re-normalising is clean.
	if n.Negative.Contains(raw) || strings.EqualFold(strings.TrimSpace(raw), LabelNo) {
		return LabelNo, true
	}
	return LabelNo, false
}

// CategoricalNormalizer cleans open categorical fields such as country,
// industry or prospector name.
type CategoricalNormalizer struct {
	Default     string
	NullMarkers TokenSet
	// TitleCase is enabled per field, e.g. for person names.
	TitleCase bool
}

// NewCategoricalNormalizer builds a normalizer; an empty def becomes "N/D"
// and nil markers fall back to DefaultNullMarkers.
func NewCategoricalNormalizer(def string, markers []string, titleCase bool) CategoricalNormalizer {
	if def == "" {
		def = DefaultCategoricalLabel
	}
	set := defaultNullMarkers
	if markers != nil {
		set = NewTokenSet(markers...)
	}
	return CategoricalNormalizer{Default: def, NullMarkers: set, TitleCase: titleCase}
}

// Normalize returns the cleaned value for raw.
func (n CategoricalNormalizer) Normalize(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || n.NullMarkers.Contains(v) {
		return n.Default
	}
	if n.TitleCase {
		// Casers keep state, so one per call.
		return cases.Title(language.Und).String(v)
	}
	return v
}
