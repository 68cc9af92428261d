package sources

import (
	"strings"

	"github.com/johnfenner/beecker-sub000/internal/funnel"
)

// HeaderKey folds a header for matching: trimmed, lowercase and with inner
// whitespace collapsed to single spaces.
func HeaderKey(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// ToRecords turns a table into funnel records. columns maps sheet headers
// onto canonical field names and is matched with HeaderKey; headers it does
// not name are dropped. With a nil map every header is kept under its folded
// key with spaces replaced by underscores. When two headers map to the same
// field the leftmost wins. Blank rows are skipped and missing trailing cells
// read as empty.
func ToRecords(table Table, columns map[string]string) []funnel.Record {
	index := columnIndex(table.Headers, columns)
	if len(index) == 0 {
		return []funnel.Record{}
	}

	records := make([]funnel.Record, 0, len(table.Rows))
	for _, row := range table.Rows {
		if isBlank(row) {
			continue
		}
		rec := make(funnel.Record, len(index))
		for _, col := range index {
			if col.pos < len(row) {
				rec[col.field] = row[col.pos]
			} else {
				rec[col.field] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

type column struct {
	pos   int
	field string
}

func columnIndex(headers []string, columns map[string]string) []column {
	var lookup map[string]string
	if columns != nil {
		lookup = make(map[string]string, len(columns))
		for header, field := range columns {
			lookup[HeaderKey(header)] = field
		}
	}

	seen := make(map[string]bool, len(headers))
	index := make([]column, 0, len(headers))
	for pos, h := range headers {
		key := HeaderKey(h)
		if key == "" {
			continue
		}

		field := strings.ReplaceAll(key, " ", "_")
		if lookup != nil {
			var ok bool
			if field, ok = lookup[key]; !ok {
				continue
			}
		}
		if seen[field] {
			continue
		}
		seen[field] = true
		index = append(index, column{pos: pos, field: field})
	}
	return index
}
