package inference

import (
	"time"
	"unicode/utf8"

	"chronodb/pkg/types"
)

// TypeAdapter probes raw field text for syntactic validity against one
// column type. Probe must not retain the value slice; callers reuse the
// backing buffer between rows.
type TypeAdapter interface {
	Probe(value []byte) bool
	Type() types.ColumnType
}

// booleanAdapter matches "true" and "false", case-insensitive.
type booleanAdapter struct{}

func (booleanAdapter) Type() types.ColumnType { return types.BooleanType }

func (booleanAdapter) Probe(value []byte) bool {
	return foldEquals(value, "true") || foldEquals(value, "false")
}

// intAdapter matches signed decimal integers that fit in 32 bits.
type intAdapter struct{}

func (intAdapter) Type() types.ColumnType { return types.IntType }

func (intAdapter) Probe(value []byte) bool {
	v, ok := parseDecimal(value)
	return ok && v >= -1<<31 && v < 1<<31
}

// longAdapter matches signed decimal integers that fit in 64 bits.
type longAdapter struct{}

func (longAdapter) Type() types.ColumnType { return types.LongType }

func (longAdapter) Probe(value []byte) bool {
	_, ok := parseDecimal(value)
	return ok
}

// doubleAdapter matches decimal floating point numbers, with optional
// fraction and exponent. Hex floats, "inf" and "nan" spellings are
// rejected; they never appear in tabular text data on purpose.
type doubleAdapter struct{}

func (doubleAdapter) Type() types.ColumnType { return types.DoubleType }

func (doubleAdapter) Probe(value []byte) bool {
	return parseFloatText(value)
}

// dateAdapter matches calendar dates in yyyy-MM-dd form.
type dateAdapter struct{}

func (dateAdapter) Type() types.ColumnType { return types.DateType }

func (dateAdapter) Probe(value []byte) bool {
	if len(value) != len("2006-01-02") {
		return false
	}
	_, err := time.Parse("2006-01-02", string(value))
	return err == nil
}

// timestampAdapter matches ISO timestamps, with or without a zone
// designator or fractional seconds.
type timestampAdapter struct{}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (timestampAdapter) Type() types.ColumnType { return types.TimestampType }

func (timestampAdapter) Probe(value []byte) bool {
	if len(value) < len("2006-01-02T15:04:05") {
		return false
	}
	s := string(value)
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// charAdapter matches values that are exactly one rune long.
type charAdapter struct{}

func (charAdapter) Type() types.ColumnType { return types.CharType }

func (charAdapter) Probe(value []byte) bool {
	if len(value) == 0 || !utf8.Valid(value) {
		return false
	}
	_, size := utf8.DecodeRune(value)
	return size == len(value)
}

// stringAdapter is the fallback type for columns no probe resolves. It is
// not part of the probe registry; every value is a valid string.
type stringAdapter struct{}

func (stringAdapter) Type() types.ColumnType { return types.StringType }

func (stringAdapter) Probe([]byte) bool { return true }

// noopAdapter marks a column the schema override excludes from table
// creation. Its reported type is types.TypeCount, which no real column
// carries; consumers skip such columns.
type noopAdapter struct{}

func (noopAdapter) Type() types.ColumnType { return types.TypeCount }

func (noopAdapter) Probe([]byte) bool { return false }

// NoopAdapter is the shared ignored-column adapter instance.
var NoopAdapter TypeAdapter = noopAdapter{}

// IsNoop reports whether the adapter marks an ignored column.
func IsNoop(a TypeAdapter) bool {
	_, ok := a.(noopAdapter)
	return ok
}

func foldEquals(value []byte, lower string) bool {
	if len(value) != len(lower) {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != lower[i] {
			return false
		}
	}
	return true
}

// parseDecimal parses an optionally signed decimal integer without
// allocating. The bool result is false on empty input, stray characters
// or 64-bit overflow.
func parseDecimal(value []byte) (int64, bool) {
	i := 0
	negative := false
	if len(value) > 0 && (value[0] == '-' || value[0] == '+') {
		negative = value[0] == '-'
		i++
	}
	if i == len(value) {
		return 0, false
	}
	var v uint64
	for ; i < len(value); i++ {
		c := value[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		if v > (1<<63-1)/10 {
			return 0, false
		}
		v = v*10 + uint64(c-'0')
	}
	if negative {
		if v > 1<<63 {
			return 0, false
		}
		return -int64(v), true
	}
	if v > 1<<63-1 {
		return 0, false
	}
	return int64(v), true
}

// parseFloatText validates decimal float syntax: sign, integer part,
// optional fraction, optional exponent. At least one digit must appear.
func parseFloatText(value []byte) bool {
	i := 0
	if len(value) > 0 && (value[0] == '-' || value[0] == '+') {
		i++
	}
	digits := 0
	for ; i < len(value) && value[i] >= '0' && value[i] <= '9'; i++ {
		digits++
	}
	if i < len(value) && value[i] == '.' {
		i++
		for ; i < len(value) && value[i] >= '0' && value[i] <= '9'; i++ {
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(value) && (value[i] == 'e' || value[i] == 'E') {
		i++
		if i < len(value) && (value[i] == '-' || value[i] == '+') {
			i++
		}
		expDigits := 0
		for ; i < len(value) && value[i] >= '0' && value[i] <= '9'; i++ {
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	return i == len(value)
}
