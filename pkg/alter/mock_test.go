package alter

import (
	"fmt"

	"chronodb/pkg/dberr"
	"chronodb/pkg/metadata"
	"chronodb/pkg/types"
)

// recordingService captures every metadata call in order so tests can
// compare the call sequences produced by equivalent commands. Individual
// operations can be made to fail by key.
type recordingService struct {
	token metadata.TableToken
	calls []string

	failRemovePartition map[int64]bool
	attachResults       map[int64]metadata.AttachDetachStatus
	failColumnOps       bool
}

func newRecordingService(tableName string) *recordingService {
	return &recordingService{
		token:               metadata.TableToken{TableName: tableName, TableID: 1},
		failRemovePartition: make(map[int64]bool),
		attachResults:       make(map[int64]metadata.AttachDetachStatus),
	}
}

func (s *recordingService) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *recordingService) TableToken() metadata.TableToken { return s.token }
func (s *recordingService) PartitionBy() string             { return "DAY" }

func (s *recordingService) AddColumn(name string, columnType types.ColumnType, symbolCapacity int, symbolCacheFlag, indexed bool, indexValueBlockCapacity int, dedupKey bool) error {
	s.record("AddColumn(%s,%s,%d,%v,%v,%d,%v)", name, columnType, symbolCapacity, symbolCacheFlag, indexed, indexValueBlockCapacity, dedupKey)
	if s.failColumnOps {
		return dberr.New("column already exists [name=%s]", name)
	}
	return nil
}

func (s *recordingService) RemoveColumn(name string) error {
	s.record("RemoveColumn(%s)", name)
	if s.failColumnOps {
		return dberr.New("column does not exist [name=%s]", name)
	}
	return nil
}

func (s *recordingService) RenameColumn(oldName, newName string) error {
	s.record("RenameColumn(%s,%s)", oldName, newName)
	return nil
}

func (s *recordingService) ChangeColumnType(name string, newType types.ColumnType, symbolCapacity int, symbolCacheFlag, indexed bool, indexValueBlockCapacity int) error {
	s.record("ChangeColumnType(%s,%s,%d,%v,%v,%d)", name, newType, symbolCapacity, symbolCacheFlag, indexed, indexValueBlockCapacity)
	return nil
}

func (s *recordingService) AddIndex(columnName string, indexValueBlockCapacity int) error {
	s.record("AddIndex(%s,%d)", columnName, indexValueBlockCapacity)
	return nil
}

func (s *recordingService) DropIndex(columnName string) error {
	s.record("DropIndex(%s)", columnName)
	return nil
}

func (s *recordingService) ColumnIndex(name string) int {
	if name == "missing" {
		return -1
	}
	return 3
}

func (s *recordingService) ChangeCacheFlag(columnIndex int, cache bool) error {
	s.record("ChangeCacheFlag(%d,%v)", columnIndex, cache)
	return nil
}

func (s *recordingService) SetMaxUncommittedRows(n int) error {
	s.record("SetMaxUncommittedRows(%d)", n)
	return nil
}

func (s *recordingService) SetO3MaxLag(lagMicros int64) error {
	s.record("SetO3MaxLag(%d)", lagMicros)
	return nil
}

func (s *recordingService) AttachPartition(ts int64) metadata.AttachDetachStatus {
	s.record("AttachPartition(%d)", ts)
	if status, ok := s.attachResults[ts]; ok {
		return status
	}
	return metadata.StatusOK
}

func (s *recordingService) DetachPartition(ts int64) metadata.AttachDetachStatus {
	s.record("DetachPartition(%d)", ts)
	if status, ok := s.attachResults[ts]; ok {
		return status
	}
	return metadata.StatusOK
}

func (s *recordingService) RemovePartition(ts int64) bool {
	s.record("RemovePartition(%d)", ts)
	return !s.failRemovePartition[ts]
}

func (s *recordingService) SquashPartitions() error {
	s.record("SquashPartitions()")
	return nil
}

func (s *recordingService) RenameTable(fromName, toName string) error {
	s.record("RenameTable(%s,%s)", fromName, toName)
	return nil
}

func (s *recordingService) EnableDeduplicationWithUpsertKeys(columnIndexes []int64) error {
	s.record("EnableDeduplication(%v)", columnIndexes)
	return nil
}

func (s *recordingService) DisableDeduplication() error {
	s.record("DisableDeduplication()")
	return nil
}
