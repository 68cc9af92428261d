package funnel

import "strings"

// Canonical labels produced by the normalizers.
const (
	LabelYes = "Si"
	LabelNo  = "No"

	// DefaultCategoricalLabel is used for empty or null-like categorical cells.
	DefaultCategoricalLabel = "N/D"
)

// Canonical field names shared by page configuration, filters and exports.
const (
	FieldName       = "name"
	FieldCompany    = "company"
	FieldRole       = "role"
	FieldIndustry   = "industry"
	FieldCountry    = "country"
	FieldSource     = "source"
	FieldProspector = "prospector"
	FieldAvatar     = "avatar"
	FieldCampaign   = "campaign"

	FieldInviteAccepted        = "invite_accepted"
	FieldFirstMessageSent      = "first_message_sent"
	FieldFirstMessageResponded = "first_message_responded"
	FieldMeetingScheduled      = "meeting_scheduled"

	FieldInviteDate       = "invite_date"
	FieldFirstMessageDate = "first_message_date"
	FieldMeetingDate      = "meeting_date"
)

// Record is one prospecting row keyed by canonical field name. A missing key,
// an empty string and a null cell are all the same thing.
type Record map[string]string

// Value returns the raw value stored for field, or "" when absent.
func (r Record) Value(field string) string {
	if r == nil {
		return ""
	}
	return r[field]
}

// With returns a copy of r with field set to value. The receiver is not
// modified.
func (r Record) With(field, value string) Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[field] = value
	return out
}

// StageCount is the number of records that reached a named stage.
type StageCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Rate is a conversion percentage for a stage transition.
type Rate struct {
	Transition string  `json:"transition"`
	Percentage float64 `json:"percentage"`
}

// Summary is the derived aggregate for one record collection. It is built
// fresh on every call.
type Summary struct {
	Total        int          `json:"total"`
	Stages       []StageCount `json:"stages"`
	Rates        []Rate       `json:"rates"`
	RatesVsTotal []Rate       `json:"rates_vs_total"`
}

// IsEmpty reports whether the summary holds no data worth charting, i.e. no
// stages or every stage count is zero.
func (s Summary) IsEmpty() bool {
	for _, sc := range s.Stages {
		if sc.Count != 0 {
			return false
		}
	}
	return true
}

// TokenSet is a set of lowercase, trimmed tokens.
type TokenSet map[string]struct{}

// NewTokenSet builds a TokenSet, folding every token to trimmed lowercase.
func NewTokenSet(tokens ...string) TokenSet {
	set := make(TokenSet, len(tokens))
	for _, t := range tokens {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return set
}

// Contains reports whether the folded form of v is in the set.
func (s TokenSet) Contains(v string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(v))]
	return ok
}
