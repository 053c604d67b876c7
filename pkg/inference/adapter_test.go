package inference

import (
	"testing"

	"chronodb/pkg/types"
)

func TestBooleanAdapter(t *testing.T) {
	a := booleanAdapter{}
	for _, v := range []string{"true", "false", "TRUE", "False", "tRuE"} {
		if !a.Probe([]byte(v)) {
			t.Errorf("Expected %q to probe as boolean", v)
		}
	}
	for _, v := range []string{"", "1", "0", "yes", "truthy", "fals"} {
		if a.Probe([]byte(v)) {
			t.Errorf("Expected %q not to probe as boolean", v)
		}
	}
}

func TestIntAdapter(t *testing.T) {
	a := intAdapter{}
	for _, v := range []string{"0", "42", "-7", "+13", "2147483647", "-2147483648"} {
		if !a.Probe([]byte(v)) {
			t.Errorf("Expected %q to probe as int", v)
		}
	}
	for _, v := range []string{"", "-", "+", "1.5", "abc", "1e3", "2147483648", "-2147483649", "12 "} {
		if a.Probe([]byte(v)) {
			t.Errorf("Expected %q not to probe as int", v)
		}
	}
}

func TestLongAdapter(t *testing.T) {
	a := longAdapter{}
	for _, v := range []string{"2147483648", "9223372036854775807", "-9223372036854775808"} {
		if !a.Probe([]byte(v)) {
			t.Errorf("Expected %q to probe as long", v)
		}
	}
	for _, v := range []string{"9223372036854775808", "-9223372036854775809", "99999999999999999999"} {
		if a.Probe([]byte(v)) {
			t.Errorf("Expected %q not to probe as long", v)
		}
	}
}

func TestDoubleAdapter(t *testing.T) {
	a := doubleAdapter{}
	for _, v := range []string{"1", "2.5", "-0.25", ".5", "5.", "1e10", "1.5E-3", "+2.0"} {
		if !a.Probe([]byte(v)) {
			t.Errorf("Expected %q to probe as double", v)
		}
	}
	for _, v := range []string{"", ".", "-", "1e", "e5", "nan", "inf", "0x1p2", "1.2.3", "2,5"} {
		if a.Probe([]byte(v)) {
			t.Errorf("Expected %q not to probe as double", v)
		}
	}
}

func TestDateAdapter(t *testing.T) {
	a := dateAdapter{}
	for _, v := range []string{"2024-01-15", "1999-12-31"} {
		if !a.Probe([]byte(v)) {
			t.Errorf("Expected %q to probe as date", v)
		}
	}
	for _, v := range []string{"", "2024-1-5", "2024-13-01", "2024-02-30", "15/01/2024", "2024-01-15T00:00:00Z"} {
		if a.Probe([]byte(v)) {
			t.Errorf("Expected %q not to probe as date", v)
		}
	}
}

func TestTimestampAdapter(t *testing.T) {
	a := timestampAdapter{}
	for _, v := range []string{
		"2024-01-15T10:30:00Z",
		"2024-01-15T10:30:00.123456Z",
		"2024-01-15T10:30:00+02:00",
		"2024-01-15T10:30:00",
		"2024-01-15 10:30:00",
	} {
		if !a.Probe([]byte(v)) {
			t.Errorf("Expected %q to probe as timestamp", v)
		}
	}
	for _, v := range []string{"", "2024-01-15", "10:30:00", "not a time"} {
		if a.Probe([]byte(v)) {
			t.Errorf("Expected %q not to probe as timestamp", v)
		}
	}
}

func TestCharAdapter(t *testing.T) {
	a := charAdapter{}
	for _, v := range []string{"x", "7", "é", "日"} {
		if !a.Probe([]byte(v)) {
			t.Errorf("Expected %q to probe as char", v)
		}
	}
	for _, v := range []string{"", "ab", "日本"} {
		if a.Probe([]byte(v)) {
			t.Errorf("Expected %q not to probe as char", v)
		}
	}
	if a.Probe([]byte{0xff, 0xfe}) {
		t.Error("Expected invalid UTF-8 not to probe as char")
	}
}

func TestTypeManagerRegistry(t *testing.T) {
	m := NewTypeManager()

	if m.ProbeCount() != 7 {
		t.Errorf("Expected 7 probes, got %d", m.ProbeCount())
	}

	// int before long before double: narrower wins on ties
	var intIdx, longIdx, doubleIdx int
	for k := 0; k < m.ProbeCount(); k++ {
		switch m.Probe(k).Type() {
		case types.IntType:
			intIdx = k
		case types.LongType:
			longIdx = k
		case types.DoubleType:
			doubleIdx = k
		}
	}
	if !(intIdx < longIdx && longIdx < doubleIdx) {
		t.Errorf("Expected int < long < double priority, got %d %d %d", intIdx, longIdx, doubleIdx)
	}
}

func TestTypeManagerIndexesFor(t *testing.T) {
	m := NewTypeManager()

	idx := m.IndexesFor(types.DoubleType)
	if len(idx) != 1 || m.Probe(idx[0]).Type() != types.DoubleType {
		t.Errorf("Expected the double probe, got %v", idx)
	}

	if m.IndexesFor(types.SymbolType) != nil {
		t.Error("Expected no probes for SYMBOL")
	}
}

func TestDefaultAdapter(t *testing.T) {
	m := NewTypeManager()

	if got := m.DefaultAdapter(types.IntType).Type(); got != types.IntType {
		t.Errorf("Expected INT adapter, got %v", got)
	}
	if got := m.DefaultAdapter(types.SymbolType).Type(); got != types.SymbolType {
		t.Errorf("Expected SYMBOL adapter, got %v", got)
	}
	if got := m.StringAdapter().Type(); got != types.StringType {
		t.Errorf("Expected STRING fallback, got %v", got)
	}
}

func TestNoopAdapter(t *testing.T) {
	if !IsNoop(NoopAdapter) {
		t.Error("Expected NoopAdapter to be noop")
	}
	if IsNoop(stringAdapter{}) {
		t.Error("Expected stringAdapter not to be noop")
	}
	if NoopAdapter.Probe([]byte("anything")) {
		t.Error("Expected noop adapter to probe nothing")
	}
}
