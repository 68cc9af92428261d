package funnel

import (
	"fmt"
	"sort"
	"strings"
)

// Predicate decides whether a record reached a stage.
type Predicate func(Record) bool

// Stage is a named funnel step. Stages are evaluated independently: a record
// counted in a later stage does not have to satisfy an earlier one.
type Stage struct {
	Name      string
	Predicate Predicate
}

// Aggregate counts the records satisfying each stage predicate. The output
// has one entry per stage in the given order; an empty collection yields all
// zeros. A stage without a predicate is a programming error and panics.
func Aggregate(records []Record, stages []Stage) []StageCount {
	mustHavePredicates(stages)

	counts := make([]StageCount, len(stages))
	for i, st := range stages {
		counts[i].Name = st.Name
	}
	for _, rec := range records {
		for i, st := range stages {
			if st.Predicate(rec) {
				counts[i].Count++
			}
		}
	}
	return counts
}

// AggregateBy partitions records with keyFn and aggregates each partition.
// Only keys that own at least one record appear in the result, so summing a
// stage across groups gives the ungrouped count.
func AggregateBy(records []Record, keyFn func(Record) string, stages []Stage) map[string][]StageCount {
	if keyFn == nil {
		panic("funnel: AggregateBy called with nil key function")
	}
	mustHavePredicates(stages)

	partitions := make(map[string][]Record)
	for _, rec := range records {
		key := keyFn(rec)
		partitions[key] = append(partitions[key], rec)
	}

	out := make(map[string][]StageCount, len(partitions))
	for key, part := range partitions {
		out[key] = Aggregate(part, stages)
	}
	return out
}

// GroupOrder returns the keys of a grouped aggregate sorted by first-stage
// count (descending) then key, which is the order breakdown tables use.
func GroupOrder(groups map[string][]StageCount) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	first := func(k string) int {
		if len(groups[k]) == 0 {
			return 0
		}
		return groups[k][0].Count
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := first(keys[i]), first(keys[j])
		if ci != cj {
			return ci > cj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Summarize aggregates records and derives both rate series.
func Summarize(records []Record, stages []Stage) Summary {
	counts := Aggregate(records, stages)
	return Summary{
		Total:        len(records),
		Stages:       counts,
		Rates:        Rates(counts),
		RatesVsTotal: RatesVsTotal(counts),
	}
}

func mustHavePredicates(stages []Stage) {
	for i, st := range stages {
		if st.Predicate == nil {
			panic(fmt.Sprintf("funnel: stage %d (%q) has no predicate", i, st.Name))
		}
	}
}

// FieldIs matches records whose field equals label exactly. Use it on
// records that were already normalized.
func FieldIs(field, label string) Predicate {
	return func(r Record) bool {
		return r.Value(field) == label
	}
}

// FlagIs normalizes the raw field with n before comparing it with label, so
// it also works on raw rows.
func FlagIs(field, label string, n BooleanNormalizer) Predicate {
	return func(r Record) bool {
		return n.Normalize(r.Value(field)) == label
	}
}

// FieldEqualsFold matches a trimmed, case-insensitive field value.
func FieldEqualsFold(field, value string) Predicate {
	want := strings.TrimSpace(value)
	return func(r Record) bool {
		return strings.EqualFold(strings.TrimSpace(r.Value(field)), want)
	}
}

// All is true when every predicate is.
func All(preds ...Predicate) Predicate {
	return func(r Record) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Any is true when at least one predicate is.
func Any(preds ...Predicate) Predicate {
	return func(r Record) bool {
		for _, p := range preds {
			if p(r) {
				return true
			}
		}
		return false
	}
}

// Always matches every record; useful as a "Total" baseline stage.
func Always(Record) bool { return true }

// ByField returns a key function grouping on a field value.
func ByField(field string) func(Record) string {
	return func(r Record) string {
		return r.Value(field)
	}
}
