package types

import "strings"

// ColumnType identifies the storage type of a table column.
type ColumnType int16

const (
	BooleanType ColumnType = iota
	ByteType
	ShortType
	CharType
	IntType
	LongType
	DateType
	DoubleType
	StringType
	SymbolType
	TimestampType

	// TypeCount marks a column as flexible in required-type lists:
	// it is one past the last real type and never names a column.
	TypeCount
)

// String returns a string representation of the type
func (t ColumnType) String() string {
	switch t {
	case BooleanType:
		return "BOOLEAN"
	case ByteType:
		return "BYTE"
	case ShortType:
		return "SHORT"
	case CharType:
		return "CHAR"
	case IntType:
		return "INT"
	case LongType:
		return "LONG"
	case DateType:
		return "DATE"
	case DoubleType:
		return "DOUBLE"
	case StringType:
		return "STRING"
	case SymbolType:
		return "SYMBOL"
	case TimestampType:
		return "TIMESTAMP"
	default:
		return "UNKNOWN"
	}
}

// ParseColumnType resolves a type name as printed by String. Matching is
// case-insensitive. The second result is false for unknown names.
func ParseColumnType(name string) (ColumnType, bool) {
	for t := BooleanType; t < TypeCount; t++ {
		if strings.EqualFold(name, t.String()) {
			return t, true
		}
	}
	return TypeCount, false
}

// Tag returns the stable wire tag for the type. Tags are carried inside
// serialized alter commands and must not be renumbered.
func (t ColumnType) Tag() int16 {
	return int16(t)
}

// FromTag maps a wire tag back to a ColumnType. Returns TypeCount and
// false for tags that do not name a real type.
func FromTag(tag int16) (ColumnType, bool) {
	if tag < 0 || ColumnType(tag) >= TypeCount {
		return TypeCount, false
	}
	return ColumnType(tag), true
}

// IsStringy reports whether the type belongs to the character/string
// family. Structure inference treats these as the "all strings" class
// when deciding header presence.
func (t ColumnType) IsStringy() bool {
	return t == CharType || t == StringType || t == SymbolType
}
