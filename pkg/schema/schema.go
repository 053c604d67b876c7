// Package schema holds externally supplied column overrides for delimited
// text ingestion. An override either excludes a file column from table
// creation or pins its type, matched against the file by header name or by
// column position.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"chronodb/pkg/types"
)

// Column is one override rule.
type Column struct {
	// FileColumnName matches a normalized header name, case-insensitive.
	// Empty when the rule is positional.
	FileColumnName string

	// FileColumnIndex matches a zero-based file column position. Negative
	// when the rule is name-based.
	FileColumnIndex int

	// Ignore excludes the column from table creation entirely.
	Ignore bool

	// HasType is true when ColumnType pins the column's type.
	HasType bool

	// ColumnType is the pinned type; only meaningful when HasType is set.
	ColumnType types.ColumnType
}

// Schema is an immutable set of override rules with name and index lookup.
type Schema struct {
	columns []Column
	byName  map[string]int
	byIndex map[int]int
}

// New builds a Schema from rules. Later rules win on duplicate keys.
func New(columns []Column) *Schema {
	s := &Schema{
		columns: columns,
		byName:  make(map[string]int),
		byIndex: make(map[int]int),
	}
	for i, c := range columns {
		if c.FileColumnName != "" {
			s.byName[strings.ToLower(c.FileColumnName)] = i
		}
		if c.FileColumnIndex >= 0 {
			s.byIndex[c.FileColumnIndex] = i
		}
	}
	return s
}

// Empty returns a schema with no rules.
func Empty() *Schema {
	return New(nil)
}

// ColumnCount returns the number of rules.
func (s *Schema) ColumnCount() int {
	return len(s.columns)
}

// HasNameRules reports whether any rule is keyed by header name.
func (s *Schema) HasNameRules() bool {
	return len(s.byName) > 0
}

// HasIndexRules reports whether any rule is keyed by column position.
func (s *Schema) HasIndexRules() bool {
	return len(s.byIndex) > 0
}

// ByName returns the rule for a normalized header name, or nil.
func (s *Schema) ByName(name string) *Column {
	if i, ok := s.byName[strings.ToLower(name)]; ok {
		return &s.columns[i]
	}
	return nil
}

// ByIndex returns the rule for a file column position, or nil.
func (s *Schema) ByIndex(index int) *Column {
	if i, ok := s.byIndex[index]; ok {
		return &s.columns[i]
	}
	return nil
}

// columnJSON is the on-disk shape of one rule.
type columnJSON struct {
	FileColumnName  string `json:"file_column_name,omitempty"`
	FileColumnIndex *int   `json:"file_column_index,omitempty"`
	Ignore          bool   `json:"ignore,omitempty"`
	ColumnType      string `json:"column_type,omitempty"`
}

type schemaJSON struct {
	Columns []columnJSON `json:"columns"`
}

// Load reads override rules from a JSON file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes override rules from JSON bytes.
func Parse(data []byte) (*Schema, error) {
	var doc schemaJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	columns := make([]Column, 0, len(doc.Columns))
	for i, cj := range doc.Columns {
		col := Column{
			FileColumnName:  cj.FileColumnName,
			FileColumnIndex: -1,
			Ignore:          cj.Ignore,
		}
		if cj.FileColumnIndex != nil {
			col.FileColumnIndex = *cj.FileColumnIndex
		}
		if col.FileColumnName == "" && col.FileColumnIndex < 0 {
			return nil, fmt.Errorf("schema column %d has neither a name nor an index", i)
		}
		if cj.ColumnType != "" {
			t, ok := types.ParseColumnType(cj.ColumnType)
			if !ok {
				return nil, fmt.Errorf("schema column %d has unknown type %q", i, cj.ColumnType)
			}
			col.HasType = true
			col.ColumnType = t
		}
		columns = append(columns, col)
	}
	return New(columns), nil
}
