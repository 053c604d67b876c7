// Package metadata defines the table-writer-side mutation contract that
// alter commands are applied against, plus an in-memory implementation of
// it used by the writer queue and by tests.
package metadata

import "chronodb/pkg/types"

// TableToken identifies a table across rename operations: the ID is
// stable, the name is the current visible name.
type TableToken struct {
	TableName string
	TableID   int
}

// AttachDetachStatus is the result of a partition attach or detach.
type AttachDetachStatus int

const (
	StatusOK AttachDetachStatus = iota
	StatusPartitionExists
	StatusPartitionMissing
	StatusDetachedMissing
)

// String returns a string representation of the status.
func (s AttachDetachStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusPartitionExists:
		return "partition already attached"
	case StatusPartitionMissing:
		return "partition does not exist"
	case StatusDetachedMissing:
		return "detached partition does not exist"
	default:
		return "unknown status"
	}
}

// Service exposes a table's mutable schema and partition operations to the
// command apply step. Exactly one goroutine calls into a Service instance
// at a time; the queue discipline around the table writer enforces that,
// not the implementations.
type Service interface {
	// TableToken returns the identity of the table being mutated.
	TableToken() TableToken

	// PartitionBy names the table's partitioning unit, e.g. "DAY".
	PartitionBy() string

	// AddColumn appends a column. Name collisions and invalid types are
	// reported as errors.
	AddColumn(name string, columnType types.ColumnType, symbolCapacity int, symbolCacheFlag, indexed bool, indexValueBlockCapacity int, dedupKey bool) error

	// RemoveColumn drops a column. Dropping a missing column or the
	// designated timestamp column is an error.
	RemoveColumn(name string) error

	// RenameColumn renames a column; the new name must not collide.
	RenameColumn(oldName, newName string) error

	// ChangeColumnType mutates a column's stored type in place.
	ChangeColumnType(name string, newType types.ColumnType, symbolCapacity int, symbolCacheFlag, indexed bool, indexValueBlockCapacity int) error

	// AddIndex creates an index on the named column.
	AddIndex(columnName string, indexValueBlockCapacity int) error

	// DropIndex removes the index from the named column.
	DropIndex(columnName string) error

	// ColumnIndex returns the position of a column, or -1 when absent.
	ColumnIndex(name string) int

	// ChangeCacheFlag toggles the symbol cache flag of the column at the
	// given position.
	ChangeCacheFlag(columnIndex int, cache bool) error

	// SetMaxUncommittedRows updates the table-level tunable.
	SetMaxUncommittedRows(n int) error

	// SetO3MaxLag updates the out-of-order commit lag tunable, in
	// microseconds.
	SetO3MaxLag(lagMicros int64) error

	// AttachPartition brings a detached partition back into the table.
	AttachPartition(partitionTimestamp int64) AttachDetachStatus

	// DetachPartition removes a partition from the table while keeping
	// its data available for a later attach.
	DetachPartition(partitionTimestamp int64) AttachDetachStatus

	// RemovePartition drops a partition outright. Returns false when the
	// partition is not attached.
	RemovePartition(partitionTimestamp int64) bool

	// SquashPartitions merges physical partition parts per the service's
	// own policy.
	SquashPartitions() error

	// RenameTable renames the table.
	RenameTable(fromName, toName string) error

	// EnableDeduplicationWithUpsertKeys marks the columns at the given
	// positions as the upsert key set.
	EnableDeduplicationWithUpsertKeys(columnIndexes []int64) error

	// DisableDeduplication clears the dedup configuration.
	DisableDeduplication() error
}
