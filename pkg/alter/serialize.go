package alter

import (
	"encoding/binary"
	"unicode/utf16"

	"chronodb/pkg/dberr"
	"chronodb/pkg/metadata"

	"github.com/google/uuid"
)

// Wire layout, big-endian throughout:
//
//	[command:2][tableNamePosition:4]
//	[longCount:4][longCount x 8-byte values]
//	[stringCount:4][per string: charLen:4 + charLen x 2-byte UTF-16 units]
//
// The form is self-describing: every variable-length section is preceded
// by its count, so a command deserializes without external schema.

// headerSize is the fixed prefix: command, table name position, long count.
const headerSize = 2 + 4 + 4

// SerializeBody appends the command's wire form to buf and returns the
// extended slice. Encoding always copies string payloads; the result is
// safe to hand to another goroutine.
func (op *Operation) SerializeBody(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(op.command))
	buf = binary.BigEndian.AppendUint32(buf, uint32(op.tableNamePosition))

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(op.extraInfo)))
	for _, v := range op.extraInfo {
		buf = binary.BigEndian.AppendUint64(buf, uint64(v))
	}

	buf = binary.BigEndian.AppendUint32(buf, uint32(op.active.size()))
	for i := 0; i < op.active.size(); i++ {
		units := utf16.Encode([]rune(op.active.get(i)))
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(units)))
		for _, u := range units {
			buf = binary.BigEndian.AppendUint16(buf, u)
		}
	}
	return buf
}

// Deserialize rebuilds the operation from its wire form. The operation
// borrows buf for its string payload: buf must stay valid and unmodified
// until the operation is cleared or deserialized again.
//
// Deserialization is defensive. Every length field is checked against the
// remaining buffer before use and a malformed buffer yields a critical
// error naming the command stream as corrupt, never a panic.
func (op *Operation) Deserialize(token metadata.TableToken, correlationID uuid.UUID, buf []byte) error {
	op.Clear()

	if len(buf) < headerSize {
		return dberr.Critical(
			"cannot read alter statement serialized to writer queue, data is too short to read %d bytes header [size=%d]",
			headerSize, len(buf),
		)
	}

	op.tableToken = token
	op.correlationID = correlationID

	op.command = Command(int16(binary.BigEndian.Uint16(buf)))
	op.tableNamePosition = int(int32(binary.BigEndian.Uint32(buf[2:])))

	longCount := int(int32(binary.BigEndian.Uint32(buf[6:])))
	readPtr := headerSize
	if longCount < 0 || longCount > (len(buf)-readPtr)/8 {
		return dberr.Critical("invalid alter statement serialized to writer queue [2]")
	}
	for i := 0; i < longCount; i++ {
		op.extraInfo = append(op.extraInfo, int64(binary.BigEndian.Uint64(buf[readPtr:])))
		readPtr += 8
	}

	if _, err := op.borrowed.of(buf, readPtr); err != nil {
		op.Clear()
		return err
	}
	op.active = &op.borrowed
	return nil
}
