package alter

import (
	"encoding/binary"
	"unicode/utf16"

	"chronodb/pkg/dberr"
)

// charSequenceList is the read-only contract over a command's string
// payload. Two implementations back it: ownedStringList while the command
// is freshly built, borrowedStringList after deserialization.
type charSequenceList interface {
	get(i int) string
	size() int
}

// ownedStringList holds copies of the payload strings.
type ownedStringList struct {
	strings []string
}

func (l *ownedStringList) add(s string) {
	l.strings = append(l.strings, s)
}

func (l *ownedStringList) get(i int) string {
	return l.strings[i]
}

func (l *ownedStringList) size() int {
	return len(l.strings)
}

func (l *ownedStringList) clear() {
	l.strings = l.strings[:0]
}

// borrowedStringList holds (lo, hi) byte ranges into an externally owned
// deserialization buffer. Ranges point at UTF-16 payloads and decode to a
// string only when read. The buffer must stay valid and unmodified until
// the list is cleared; clearing drops the reference.
type borrowedStringList struct {
	buf     []byte
	offsets []int
}

// of scans the string section of a serialized command: a 4-byte count,
// then per string a 4-byte char length and charLen*2 payload bytes. Every
// length is bounds-checked before use; the source buffer is never trusted.
func (l *borrowedStringList) of(buf []byte, lo int) (int, error) {
	l.buf = buf
	l.offsets = l.offsets[:0]
	if lo+4 > len(buf) {
		return 0, dberr.Critical("invalid alter statement serialized to writer queue [11]")
	}
	count := int(int32(binary.BigEndian.Uint32(buf[lo:])))
	if count < 0 {
		return 0, dberr.Critical("invalid alter statement serialized to writer queue [11]")
	}
	lo += 4
	for i := 0; i < count; i++ {
		if lo+4 > len(buf) {
			return 0, dberr.Critical("invalid alter statement serialized to writer queue [12]")
		}
		charLen := int(int32(binary.BigEndian.Uint32(buf[lo:])))
		if charLen < 0 {
			return 0, dberr.Critical("invalid alter statement serialized to writer queue [12]")
		}
		lo += 4
		byteLen := charLen * 2
		if lo+byteLen > len(buf) {
			return 0, dberr.Critical("invalid alter statement serialized to writer queue [13]")
		}
		l.offsets = append(l.offsets, lo, lo+byteLen)
		lo += byteLen
	}
	return lo, nil
}

func (l *borrowedStringList) get(i int) string {
	lo, hi := l.offsets[i*2], l.offsets[i*2+1]
	payload := l.buf[lo:hi]
	units := make([]uint16, len(payload)/2)
	for k := range units {
		units[k] = binary.BigEndian.Uint16(payload[k*2:])
	}
	return string(utf16.Decode(units))
}

func (l *borrowedStringList) size() int {
	return len(l.offsets) / 2
}

func (l *borrowedStringList) clear() {
	l.buf = nil
	l.offsets = l.offsets[:0]
}
