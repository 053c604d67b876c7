// Package alter implements ALTER TABLE class commands as compact value
// objects: built on the SQL execution side, serialized onto a single-writer
// command queue, and applied against table metadata on the writer side.
package alter

import (
	"github.com/google/uuid"

	"chronodb/pkg/metadata"
	"chronodb/pkg/types"
)

// Command is the alter operation kind. Values are part of the wire format
// and must not be renumbered.
type Command int16

const (
	DoNothing                  Command = 0
	AddColumn                  Command = 1
	DropPartition              Command = 2
	AttachPartition            Command = 3
	AddIndex                   Command = 4
	DropIndex                  Command = 5
	AddSymbolCache             Command = 6
	RemoveSymbolCache          Command = 7
	DropColumn                 Command = 8
	RenameColumn               Command = 9
	SetParamMaxUncommittedRows Command = 10
	SetParamCommitLag          Command = 11
	DetachPartition            Command = 12
	SquashPartitions           Command = 13
	RenameTable                Command = 14
	SetDedupEnable             Command = 15
	SetDedupDisable            Command = 16
	ChangeColumnType           Command = 17
)

// String returns a string representation of the command kind.
func (c Command) String() string {
	switch c {
	case DoNothing:
		return "DO NOTHING"
	case AddColumn:
		return "ADD COLUMN"
	case DropPartition:
		return "DROP PARTITION"
	case AttachPartition:
		return "ATTACH PARTITION"
	case AddIndex:
		return "ADD INDEX"
	case DropIndex:
		return "DROP INDEX"
	case AddSymbolCache:
		return "ALTER SYMBOL CACHE"
	case RemoveSymbolCache:
		return "ALTER SYMBOL NOCACHE"
	case DropColumn:
		return "DROP COLUMN"
	case RenameColumn:
		return "RENAME COLUMN"
	case SetParamMaxUncommittedRows:
		return "SET PARAM MAX UNCOMMITTED ROWS"
	case SetParamCommitLag:
		return "SET PARAM COMMIT LAG"
	case DetachPartition:
		return "DETACH PARTITION"
	case SquashPartitions:
		return "SQUASH PARTITIONS"
	case RenameTable:
		return "RENAME TABLE"
	case SetDedupEnable:
		return "DEDUP ENABLE"
	case SetDedupDisable:
		return "DEDUP DISABLE"
	case ChangeColumnType:
		return "CHANGE COLUMN TYPE"
	default:
		return "UNKNOWN"
	}
}

// IsStructural reports whether the kind alters column or table identity,
// as opposed to tunables, indexes and partitions. Structural kinds are
// rejected up front when the apply context does not allow structure
// changes.
func (c Command) IsStructural() bool {
	switch c {
	case AddColumn, RenameColumn, DropColumn, RenameTable, SetDedupEnable, SetDedupDisable, ChangeColumnType:
		return true
	default:
		return false
	}
}

// Column flag bits packed into one payload long.
const (
	flagIndexed  int64 = 1 << 0
	flagDedupKey int64 = 1 << 1
)

// ColumnFlags packs the indexed and dedup-key column flags into their
// payload long representation.
func ColumnFlags(indexed, dedupKey bool) int64 {
	var flags int64
	if indexed {
		flags |= flagIndexed
	}
	if dedupKey {
		flags |= flagDedupKey
	}
	return flags
}

// Operation is one alter command. It is built by the Of* helpers,
// serialized with SerializeBody, rebuilt from bytes with Deserialize and
// executed with Apply. An instance is reused across that cycle by clearing
// and repopulating it; it never holds two commands' data at once.
//
// String payloads have two backings: owned strings while the command is
// freshly built, or zero-copy views into a deserialization buffer after
// Deserialize. Exactly one backing is active at a time, and the borrowed
// one is only valid until the next Clear or Deserialize.
type Operation struct {
	command           Command
	tableToken        metadata.TableToken
	tableNamePosition int
	sqlText           string
	correlationID     uuid.UUID

	extraInfo []int64
	owned     ownedStringList
	borrowed  borrowedStringList
	active    charSequenceList
}

// New creates an empty operation holding the no-op command.
func New() *Operation {
	op := &Operation{command: DoNothing}
	op.active = &op.owned
	return op
}

// Clear resets the operation to the no-op command and drops both string
// backings. Must be called before the deserialization buffer of a
// previously deserialized command is reused.
func (op *Operation) Clear() {
	op.command = DoNothing
	op.tableToken = metadata.TableToken{}
	op.tableNamePosition = 0
	op.sqlText = ""
	op.correlationID = uuid.Nil
	op.extraInfo = op.extraInfo[:0]
	op.owned.clear()
	op.borrowed.clear()
	op.active = &op.owned
}

// Command returns the operation kind.
func (op *Operation) Command() Command {
	return op.command
}

// TableToken returns the identity of the targeted table.
func (op *Operation) TableToken() metadata.TableToken {
	return op.tableToken
}

// CorrelationID identifies the command across the queue boundary for
// tracing. Assigned when the command is built.
func (op *Operation) CorrelationID() uuid.UUID {
	return op.correlationID
}

// SQLText returns the originating SQL statement text, if set.
func (op *Operation) SQLText() string {
	return op.sqlText
}

// WithSQLText attaches the originating SQL statement for error reporting.
func (op *Operation) WithSQLText(sql string) *Operation {
	op.sqlText = sql
	return op
}

// IsStructural reports whether the held command is structural.
func (op *Operation) IsStructural() bool {
	return op.command.IsStructural()
}

// Of resets the operation and starts a new command of the given kind.
// The specialized Of* helpers below populate kind-specific payloads and
// should be preferred; Of is exported for kinds that carry no payload.
func (op *Operation) Of(command Command, token metadata.TableToken, tableNamePosition int) *Operation {
	op.Clear()
	op.command = command
	op.tableToken = token
	op.tableNamePosition = tableNamePosition
	op.correlationID = uuid.New()
	return op
}

// OfAddColumn starts an add-column command. Columns are appended with
// AddColumnToList; at least one must be added before the command is used.
func (op *Operation) OfAddColumn(token metadata.TableToken, tableNamePosition int) *Operation {
	return op.Of(AddColumn, token, tableNamePosition)
}

// AddColumnToList appends one column tuple to an add-column command.
func (op *Operation) AddColumnToList(
	columnName string,
	columnNamePosition int,
	columnType types.ColumnType,
	symbolCapacity int,
	cache bool,
	indexed bool,
	indexValueBlockCapacity int,
	dedupKey bool,
) *Operation {
	op.owned.add(columnName)
	cacheFlag := int64(-1)
	if cache {
		cacheFlag = 1
	}
	op.extraInfo = append(op.extraInfo,
		int64(columnType.Tag()),
		int64(symbolCapacity),
		cacheFlag,
		ColumnFlags(indexed, dedupKey),
		int64(indexValueBlockCapacity),
		int64(columnNamePosition),
	)
	return op
}

// OfDropColumn starts a drop-column command over the named columns.
func (op *Operation) OfDropColumn(token metadata.TableToken, tableNamePosition int, columnNames ...string) *Operation {
	op.Of(DropColumn, token, tableNamePosition)
	for _, name := range columnNames {
		op.owned.add(name)
	}
	return op
}

// OfRenameColumn starts a rename-column command. Pairs are appended with
// RenameColumnPair.
func (op *Operation) OfRenameColumn(token metadata.TableToken, tableNamePosition int) *Operation {
	return op.Of(RenameColumn, token, tableNamePosition)
}

// RenameColumnPair appends one (old name, new name) pair.
func (op *Operation) RenameColumnPair(oldName, newName string) *Operation {
	op.owned.add(oldName)
	op.owned.add(newName)
	return op
}

// OfChangeColumnType starts a change-column-type command for exactly one
// column.
func (op *Operation) OfChangeColumnType(
	token metadata.TableToken,
	tableNamePosition int,
	columnName string,
	columnNamePosition int,
	newType types.ColumnType,
	symbolCapacity int,
	cache bool,
	indexed bool,
	indexValueBlockCapacity int,
) *Operation {
	op.Of(ChangeColumnType, token, tableNamePosition)
	op.owned.add(columnName)
	cacheFlag := int64(-1)
	if cache {
		cacheFlag = 1
	}
	op.extraInfo = append(op.extraInfo,
		int64(newType.Tag()),
		int64(symbolCapacity),
		cacheFlag,
		ColumnFlags(indexed, false),
		int64(indexValueBlockCapacity),
		int64(columnNamePosition),
	)
	return op
}

// OfAddIndex starts an add-index command on the named column.
func (op *Operation) OfAddIndex(token metadata.TableToken, tableNamePosition int, columnName string, indexValueBlockCapacity int) *Operation {
	op.Of(AddIndex, token, tableNamePosition)
	op.owned.add(columnName)
	op.extraInfo = append(op.extraInfo, int64(indexValueBlockCapacity))
	return op
}

// OfDropIndex starts a drop-index command on the named column.
func (op *Operation) OfDropIndex(token metadata.TableToken, tableNamePosition int, columnName string, columnNamePosition int) *Operation {
	op.Of(DropIndex, token, tableNamePosition)
	op.owned.add(columnName)
	op.extraInfo = append(op.extraInfo, int64(columnNamePosition))
	return op
}

// OfSetSymbolCache starts a symbol cache toggle command on the named
// column.
func (op *Operation) OfSetSymbolCache(token metadata.TableToken, tableNamePosition int, columnName string, cache bool) *Operation {
	command := RemoveSymbolCache
	if cache {
		command = AddSymbolCache
	}
	op.Of(command, token, tableNamePosition)
	op.owned.add(columnName)
	return op
}

// OfSetMaxUncommittedRows starts a max-uncommitted-rows tunable update.
func (op *Operation) OfSetMaxUncommittedRows(token metadata.TableToken, tableNamePosition int, maxUncommittedRows int) *Operation {
	op.Of(SetParamMaxUncommittedRows, token, tableNamePosition)
	op.extraInfo = append(op.extraInfo, int64(maxUncommittedRows))
	return op
}

// OfSetO3MaxLag starts a commit-lag tunable update, in microseconds.
func (op *Operation) OfSetO3MaxLag(token metadata.TableToken, tableNamePosition int, o3MaxLagMicros int64) *Operation {
	op.Of(SetParamCommitLag, token, tableNamePosition)
	op.extraInfo = append(op.extraInfo, o3MaxLagMicros)
	return op
}

// OfAttachPartition starts an attach-partition batch. Partitions are
// appended with AddPartitionToList.
func (op *Operation) OfAttachPartition(token metadata.TableToken, tableNamePosition int) *Operation {
	return op.Of(AttachPartition, token, tableNamePosition)
}

// OfDetachPartition starts a detach-partition batch.
func (op *Operation) OfDetachPartition(token metadata.TableToken, tableNamePosition int) *Operation {
	return op.Of(DetachPartition, token, tableNamePosition)
}

// OfDropPartition starts a drop-partition batch.
func (op *Operation) OfDropPartition(token metadata.TableToken, tableNamePosition int) *Operation {
	return op.Of(DropPartition, token, tableNamePosition)
}

// AddPartitionToList appends one (timestamp, source position) pair to a
// partition batch command.
func (op *Operation) AddPartitionToList(partitionTimestamp int64, sourcePosition int) *Operation {
	op.extraInfo = append(op.extraInfo, partitionTimestamp, int64(sourcePosition))
	return op
}

// OfSquashPartitions starts a squash-partitions command.
func (op *Operation) OfSquashPartitions(token metadata.TableToken) *Operation {
	return op.Of(SquashPartitions, token, 0)
}

// OfRenameTable starts a rename-table command from the token's current
// name to the given one.
func (op *Operation) OfRenameTable(token metadata.TableToken, toTableName string) *Operation {
	op.Of(RenameTable, token, 0)
	op.owned.add(token.TableName)
	op.owned.add(toTableName)
	return op
}

// OfDedupEnable starts a dedup-enable command with the given upsert key
// column positions. The payload must be non-empty to apply.
func (op *Operation) OfDedupEnable(token metadata.TableToken, tableNamePosition int, upsertKeyColumnIndexes []int64) *Operation {
	op.Of(SetDedupEnable, token, tableNamePosition)
	op.extraInfo = append(op.extraInfo, upsertKeyColumnIndexes...)
	return op
}

// OfDedupDisable starts a dedup-disable command.
func (op *Operation) OfDedupDisable(token metadata.TableToken, tableNamePosition int) *Operation {
	return op.Of(SetDedupDisable, token, tableNamePosition)
}
