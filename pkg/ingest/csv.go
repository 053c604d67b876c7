// Package ingest streams delimited text rows into row listeners such as
// the structure analyser. It stands in for the production text lexer in
// the CLI and in tests; the interface it feeds is the same.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// RowListener consumes streamed rows. Value slices are only valid for the
// duration of the call; the source reuses them for the next row.
type RowListener interface {
	OnFields(line int64, values [][]byte, fieldCount int)
}

// CSVSource reads delimited text and delivers rows to a listener. The
// field count is fixed by the first row; rows with a different count are
// counted as errors and not delivered, matching how the lexer reports
// malformed lines.
type CSVSource struct {
	delimiter rune
	values    [][]byte
}

// NewCSVSource creates a source with the given field delimiter; zero
// means comma.
func NewCSVSource(delimiter rune) *CSVSource {
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVSource{delimiter: delimiter}
}

// Stream reads r to the end, delivering each well-formed row to the
// listener. It returns the total line count and the number of malformed
// lines, the two numbers structure analysis wants after the stream ends.
func (s *CSVSource) Stream(r io.Reader, listener RowListener) (lineCount, errorCount int64, err error) {
	reader := csv.NewReader(r)
	reader.Comma = s.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	fieldCount := -1
	var delivered int64
	for {
		record, readErr := reader.Read()
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return lineCount, errorCount, nil
			}
			var parseErr *csv.ParseError
			if errors.As(readErr, &parseErr) {
				lineCount++
				errorCount++
				continue
			}
			return lineCount, errorCount, fmt.Errorf("failed to read delimited text: %w", readErr)
		}

		if fieldCount < 0 {
			fieldCount = len(record)
		}
		lineCount++
		if len(record) != fieldCount {
			errorCount++
			continue
		}

		for len(s.values) < fieldCount {
			s.values = append(s.values, nil)
		}
		for i := 0; i < fieldCount; i++ {
			s.values[i] = append(s.values[i][:0], record[i]...)
		}
		listener.OnFields(delivered, s.values[:fieldCount], fieldCount)
		delivered++
	}
}
