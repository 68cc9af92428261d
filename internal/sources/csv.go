package sources

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"

	apperrors "github.com/johnfenner/beecker-sub000/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads a delimited text export. A zero Delimiter is detected from
// the header line.
type CSVSource struct {
	Path      string
	Delimiter rune
}

// Describe implements Source.
func (s *CSVSource) Describe() string {
	return "csv:" + s.Path
}

// Fetch implements Source.
func (s *CSVSource) Fetch(ctx context.Context) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return Table{}, apperrors.NewSourceError("failed to open csv file", err).
			WithContext("path", s.Path)
	}
	defer f.Close()

	table, err := ReadCSV(f, s.Delimiter)
	if err != nil {
		return Table{}, apperrors.NewParsingError("failed to parse csv file", err).
			WithContext("path", s.Path)
	}
	return table, nil
}

// ReadCSV parses delimited text into a Table. A leading UTF-8 byte order mark
// is dropped and rows may have any number of fields.
func ReadCSV(r io.Reader, delimiter rune) (Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	if delimiter == 0 {
		delimiter = detectDelimiter(br)
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return Table{}, err
	}
	return tableFromRows(rows), nil
}

// detectDelimiter picks the most frequent of , ; and tab in the first line.
func detectDelimiter(br *bufio.Reader) rune {
	line, _ := br.Peek(br.Size())
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
