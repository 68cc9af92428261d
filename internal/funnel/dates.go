package funnel

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// CanonicalDateLayout is the form normalized date cells are stored in.
const CanonicalDateLayout = "2006-01-02"

// DefaultDateLayouts is the ordered list tried by ParseDateRobust. Day-first
// layouts come before month-first ones, so "02/03/2025" is 2 March 2025.
// Changing the order changes how historical sheets are read.
var DefaultDateLayouts = []string{
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02-01-2006",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2/1/2006",
	"2/1/2006 15:04:05",
	"1/2/2006",
}

// fallbackLayouts cover month-name spellings exported by locale aware tools.
var fallbackLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
	"2-Jan-06",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"2006/01/02",
}

// Spreadsheet serial day numbers are counted from this epoch. Only serials
// between 1954 and 2119 are accepted, so small numbers are not read as dates.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const (
	minSerialDay = 20000
	maxSerialDay = 80000
)

// DateParser parses free-text dates with an ordered list of layouts.
type DateParser struct {
	Layouts []string
}

// NewDateParser returns a parser using layouts, or DefaultDateLayouts when
// layouts is empty.
func NewDateParser(layouts []string) DateParser {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	return DateParser{Layouts: layouts}
}

// ParseDateRobust parses raw with DefaultDateLayouts.
func ParseDateRobust(raw string) (time.Time, bool) {
	return DateParser{Layouts: DefaultDateLayouts}.Parse(raw)
}

// Parse returns the first successful interpretation of raw, then tries the
// generic fallbacks. It reports false when nothing matches and never panics.
func (p DateParser) Parse(raw string) (time.Time, bool) {
	v := strings.TrimSpace(raw)
	if v == "" || defaultNullMarkers.Contains(v) {
		return time.Time{}, false
	}

	for _, layout := range p.Layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}

	return parseGeneric(v)
}

// ParseStored reads a cell that may already have been normalized to
// CanonicalDateLayout, falling back to Parse for raw text.
func (p DateParser) ParseStored(raw string) (time.Time, bool) {
	if t, err := time.Parse(CanonicalDateLayout, strings.TrimSpace(raw)); err == nil {
		return t, true
	}
	return p.Parse(raw)
}

func parseGeneric(v string) (time.Time, bool) {
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}

	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(serial) || serial < minSerialDay || serial > maxSerialDay {
		return time.Time{}, false
	}
	days := math.Floor(serial)
	secs := math.Round((serial - days) * 86400)
	return serialEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second), true
}
