// Package inference implements streaming structure discovery for delimited
// text: column types are inferred from a histogram of type probe matches
// accumulated row by row, and the header row is detected statistically
// rather than declared.
package inference

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"chronodb/pkg/dberr"
	"chronodb/pkg/logging"
	"chronodb/pkg/schema"
	"chronodb/pkg/types"
)

// StructureAnalyser consumes streamed rows and infers column names and
// types. One instance serves one session at a time; Clear (or Of, which
// clears first) makes it reusable. Calls are not safe for concurrent use
// and rows must arrive in order starting at line 0.
type StructureAnalyser struct {
	typeManager *TypeManager
	schema      *schema.Schema
	log         *slog.Logger

	// histogram[column][probe] counts rows where that probe validated
	// that column's value. Row 0 is counted too; its contribution is what
	// separates a header from data later.
	histogram   [][]int
	blanks      []int
	columnNames []string
	columnTypes []TypeAdapter
	uniqueNames map[string]struct{}

	// fieldIndexes[i] lists registry indexes of the probes eligible for
	// column i when the target table fixes that column's type. Columns at
	// or beyond requiredHi run the full registry.
	fieldIndexes [][]int
	requiredHi   int

	fieldCount  int
	tableName   string
	hasHeader   bool
	forceHeader bool
}

// NewStructureAnalyser creates an analyser over the given probe registry
// and override schema. Pass schema.Empty() when there are no overrides.
func NewStructureAnalyser(typeManager *TypeManager, sch *schema.Schema) *StructureAnalyser {
	return &StructureAnalyser{
		typeManager: typeManager,
		schema:      sch,
		log:         logging.Component("inference"),
		uniqueNames: make(map[string]struct{}),
	}
}

// Clear resets all per-session state. Idempotent; safe to call before
// reuse.
func (a *StructureAnalyser) Clear() {
	a.histogram = a.histogram[:0]
	a.blanks = a.blanks[:0]
	a.columnNames = a.columnNames[:0]
	a.columnTypes = a.columnTypes[:0]
	a.fieldIndexes = a.fieldIndexes[:0]
	clear(a.uniqueNames)
	a.requiredHi = 0
	a.fieldCount = 0
	a.tableName = ""
	a.hasHeader = false
	a.forceHeader = false
}

// Of configures a session. requiredColumnTypes pins probe eligibility for
// columns whose type the existing table already fixes; positions holding
// types.TypeCount stay flexible and run the full registry. The slice is in
// file column order, not table column order.
func (a *StructureAnalyser) Of(tableName string, forceHeader bool, requiredColumnTypes []types.ColumnType) {
	a.Clear()
	a.tableName = tableName
	a.forceHeader = forceHeader
	a.requiredHi = len(requiredColumnTypes)
	for _, t := range requiredColumnTypes {
		if t != types.TypeCount {
			a.fieldIndexes = append(a.fieldIndexes, a.typeManager.IndexesFor(t))
		} else {
			a.fieldIndexes = append(a.fieldIndexes, a.typeManager.AllIndexes())
		}
	}
}

// OnFields consumes one streamed row. The first call fixes the column
// count and stashes the row as a possible header. Value slices belong to
// the caller and are not retained past the call.
func (a *StructureAnalyser) OnFields(line int64, values [][]byte, fieldCount int) {
	if line == 0 {
		a.seedFields(fieldCount)
		a.stashPossibleHeader(values, fieldCount)
	}

	if fieldCount > a.fieldCount {
		// the lexer reports over-long rows in its error count
		fieldCount = a.fieldCount
	}

	for i := 0; i < fieldCount; i++ {
		value := values[i]
		if len(value) == 0 {
			a.blanks[i]++
			continue
		}

		var eligible []int
		if i < a.requiredHi {
			eligible = a.fieldIndexes[i]
		} else {
			eligible = a.typeManager.AllIndexes()
		}

		for _, k := range eligible {
			if a.typeManager.Probe(k).Probe(value) {
				a.histogram[i][k]++
			}
		}
	}
}

// EvaluateResults runs header detection and finalizes column names and
// types. lineCount and errorCount come from the lexer; errored lines never
// reached OnFields and are excluded from classification.
//
// Header detection: compute types over all rows without defaulting, then
// over all rows but the first with defaulting. If every column looks
// string-typed in the first pass yet some column turns non-string once row
// 0 is excluded, row 0 cannot be data, so it is a header.
func (a *StructureAnalyser) EvaluateResults(lineCount, errorCount int64) error {
	count := lineCount - errorCount
	if (a.calcTypes(count, true) && !a.calcTypes(count-1, false)) || a.forceHeader {
		a.hasHeader = true
	} else {
		a.log.Info("no header",
			"table", a.tableName,
			"lineCount", lineCount,
			"errorCount", errorCount,
			"forceHeader", a.forceHeader,
		)
	}

	for i := 0; i < a.fieldCount; i++ {
		if !a.hasHeader || len(a.columnNames[i]) == 0 {
			name := synthesizeName(i)

			if a.hasHeader {
				for attempt := 0; attempt < 20; attempt++ {
					if !slices.Contains(a.columnNames, name) {
						break
					}
					name += "_"
				}
				if slices.Contains(a.columnNames, name) {
					return dberr.New("failed to generate unique name for column [no=%d]", i).WithTable(a.tableName)
				}
			}

			a.columnNames[i] = name
		}

		lower := strings.ToLower(a.columnNames[i])
		if _, dup := a.uniqueNames[lower]; dup {
			return dberr.New("duplicate column name found [no=%d, name=%s]", i, a.columnNames[i]).WithTable(a.tableName)
		}
		a.uniqueNames[lower] = struct{}{}
	}

	a.mergeSchemaOverrides()
	return nil
}

// HasHeader reports whether row 0 was classified as a header. Valid only
// after EvaluateResults.
func (a *StructureAnalyser) HasHeader() bool {
	return a.hasHeader
}

// ColumnNames returns the finalized column names. Valid only after
// EvaluateResults.
func (a *StructureAnalyser) ColumnNames() []string {
	return a.columnNames
}

// ColumnTypes returns the finalized type adapters, one per column. A
// column the schema excludes carries the noop adapter. Valid only after
// EvaluateResults.
func (a *StructureAnalyser) ColumnTypes() []TypeAdapter {
	return a.columnTypes
}

// calcTypes resolves each column against the probe registry: probe k is
// column i's type iff it validated (or the value was blank) on every one
// of count rows, and the column is not entirely blank. The first probe in
// priority order wins. Returns true when no column resolved to a
// non-character probe, i.e. everything still looks like text.
func (a *StructureAnalyser) calcTypes(count int64, setDefault bool) bool {
	allStrings := true
	for i := 0; i < a.fieldCount; i++ {
		blanks := int64(a.blanks[i])
		unprobed := true

		for k := 0; k < a.typeManager.ProbeCount(); k++ {
			if int64(a.histogram[i][k])+blanks == count && blanks < count {
				unprobed = false
				probe := a.typeManager.Probe(k)
				a.columnTypes[i] = probe
				if allStrings && !probe.Type().IsStringy() {
					allStrings = false
				}
				break
			}
		}

		if setDefault && unprobed {
			a.columnTypes[i] = a.typeManager.StringAdapter()
		}
	}
	return allStrings
}

func (a *StructureAnalyser) seedFields(count int) {
	a.fieldCount = count
	probeCount := a.typeManager.ProbeCount()
	a.histogram = slices.Grow(a.histogram[:0], count)
	for i := 0; i < count; i++ {
		a.histogram = append(a.histogram, make([]int, probeCount))
	}
	a.blanks = append(a.blanks[:0], make([]int, count)...)
	a.columnNames = append(a.columnNames[:0], make([]string, count)...)
	a.columnTypes = append(a.columnTypes[:0], make([]TypeAdapter, count)...)
}

// stashPossibleHeader copies row 0's cells out as normalized candidate
// names. A cell that is not valid UTF-8 is logged and left unnamed; name
// finalization synthesizes a placeholder for it later.
func (a *StructureAnalyser) stashPossibleHeader(values [][]byte, hi int) {
	for i := 0; i < hi && i < a.fieldCount; i++ {
		value := values[i]
		if utf8.Valid(value) {
			a.columnNames[i] = NormalizeColumnName(string(value))
		} else {
			a.log.Info("utf8 error", "table", a.tableName, "line", 0, "col", i)
		}
	}
}

// mergeSchemaOverrides applies external column rules, first by normalized
// header name, then by file column index; index rules win when both
// match. Ignored columns get the noop adapter, explicit types replace the
// inferred adapter outright.
func (a *StructureAnalyser) mergeSchemaOverrides() {
	if a.schema == nil || a.schema.ColumnCount() == 0 {
		return
	}

	if a.hasHeader && a.schema.HasNameRules() {
		for i := range a.columnNames {
			a.applyOverride(i, a.schema.ByName(a.columnNames[i]))
		}
	}
	if a.schema.HasIndexRules() {
		for i := range a.columnNames {
			a.applyOverride(i, a.schema.ByIndex(i))
		}
	}
}

func (a *StructureAnalyser) applyOverride(i int, col *schema.Column) {
	if col == nil {
		return
	}
	if col.Ignore {
		a.columnTypes[i] = NoopAdapter
	} else if col.HasType {
		a.columnTypes[i] = a.typeManager.DefaultAdapter(col.ColumnType)
	}
}

func synthesizeName(i int) string {
	return "f" + strconv.Itoa(i)
}
