package inference

import "chronodb/pkg/types"

// TypeManager owns the probe registry. Registry order is priority order:
// when several probes validate every value of a column, the earliest one
// wins. The registry is immutable after construction, so one manager is
// safe to share between analyser sessions.
type TypeManager struct {
	probes      []TypeAdapter
	indexByType map[types.ColumnType][]int
	allIndexes  []int
	fallback    TypeAdapter
}

// NewTypeManager builds the default registry. Narrower numeric probes come
// before wider ones so that an all-integer column resolves as INT rather
// than LONG or DOUBLE.
func NewTypeManager() *TypeManager {
	return newTypeManager([]TypeAdapter{
		booleanAdapter{},
		intAdapter{},
		longAdapter{},
		doubleAdapter{},
		dateAdapter{},
		timestampAdapter{},
		charAdapter{},
	})
}

func newTypeManager(probes []TypeAdapter) *TypeManager {
	m := &TypeManager{
		probes:      probes,
		indexByType: make(map[types.ColumnType][]int),
		allIndexes:  make([]int, len(probes)),
		fallback:    stringAdapter{},
	}
	for i, p := range probes {
		m.allIndexes[i] = i
		m.indexByType[p.Type()] = append(m.indexByType[p.Type()], i)
	}
	return m
}

// ProbeCount returns the registry size. Histogram rows are this wide.
func (m *TypeManager) ProbeCount() int {
	return len(m.probes)
}

// Probe returns the registry entry at index k.
func (m *TypeManager) Probe(k int) TypeAdapter {
	return m.probes[k]
}

// AllIndexes returns registry indexes of every probe, in priority order.
// Flexible columns run the whole registry.
func (m *TypeManager) AllIndexes() []int {
	return m.allIndexes
}

// IndexesFor returns registry indexes of the probes that can establish a
// parsing pattern for the given column type. The result is nil for types
// no probe covers; such required columns accumulate no histogram counts
// and fall through to the string default.
func (m *TypeManager) IndexesFor(t types.ColumnType) []int {
	return m.indexByType[t]
}

// DefaultAdapter returns the adapter used when a schema override names an
// explicit column type. Types backed by a registry probe reuse that probe
// instance; anything else gets a plain adapter of that type.
func (m *TypeManager) DefaultAdapter(t types.ColumnType) TypeAdapter {
	if idx := m.indexByType[t]; len(idx) > 0 {
		return m.probes[idx[0]]
	}
	if t == types.StringType {
		return m.fallback
	}
	return fixedAdapter{typ: t}
}

// StringAdapter returns the fallback adapter for unresolved columns.
func (m *TypeManager) StringAdapter() TypeAdapter {
	return m.fallback
}

// fixedAdapter carries an explicit override type that has no probe of its
// own (SYMBOL, BYTE, SHORT). It validates nothing: the override is an
// instruction, not a hypothesis.
type fixedAdapter struct {
	typ types.ColumnType
}

func (f fixedAdapter) Type() types.ColumnType { return f.typ }

func (fixedAdapter) Probe([]byte) bool { return true }
