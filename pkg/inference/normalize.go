package inference

import (
	"strings"
	"unicode"
)

// dropSet holds the punctuation characters stripped from header cells.
const dropSet = " ?.,'\"\\/:()+-*%~#"

// NormalizeColumnName turns a raw header cell into a valid column
// identifier. Punctuation and control characters are dropped and the next
// kept letter is uppercased; a UTF-8 byte order mark is dropped silently.
// A leading digit gets an underscore prepended so the result never starts
// with a number.
//
// The character set here must stay in sync with column name validation on
// the table side: every name this function produces has to be accepted
// there verbatim.
func NormalizeColumnName(raw string) string {
	var sink strings.Builder
	sink.Grow(len(raw))
	capNext := false
	for _, c := range raw {
		switch {
		case c == '\uFEFF':
			// BOM at the start of a stream; drop without capitalizing
		case c < 0x20 || c == 0x7f || strings.ContainsRune(dropSet, c):
			capNext = true
		default:
			if sink.Len() == 0 && c >= '0' && c <= '9' {
				sink.WriteByte('_')
			}
			if capNext {
				sink.WriteRune(unicode.ToUpper(c))
				capNext = false
			} else {
				sink.WriteRune(c)
			}
		}
	}
	return sink.String()
}
