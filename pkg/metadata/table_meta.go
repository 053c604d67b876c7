package metadata

import (
	"strings"

	"chronodb/pkg/dberr"
	"chronodb/pkg/types"
)

// ColumnMeta is the live metadata of one table column.
type ColumnMeta struct {
	Name                    string
	Type                    types.ColumnType
	SymbolCapacity          int
	SymbolCacheFlag         bool
	Indexed                 bool
	IndexValueBlockCapacity int
	DedupKey                bool
}

// TableWriterMeta is an in-memory Service implementation holding a single
// table's live metadata. It performs the same validation a durable writer
// would (name collisions, designated timestamp protection, bounds checks)
// without any storage behind it.
type TableWriterMeta struct {
	token               TableToken
	partitionBy         string
	designatedTimestamp string
	columns             []ColumnMeta
	attached            map[int64]struct{}
	detached            map[int64]struct{}
	maxUncommittedRows  int
	o3MaxLagMicros      int64
	dedupEnabled        bool
	squashCount         int
}

// NewTableWriterMeta creates table metadata with the given identity and
// initial columns. designatedTimestamp may be empty for non-timestamped
// tables.
func NewTableWriterMeta(token TableToken, partitionBy, designatedTimestamp string, columns []ColumnMeta) *TableWriterMeta {
	return &TableWriterMeta{
		token:               token,
		partitionBy:         partitionBy,
		designatedTimestamp: designatedTimestamp,
		columns:             append([]ColumnMeta(nil), columns...),
		attached:            make(map[int64]struct{}),
		detached:            make(map[int64]struct{}),
	}
}

// AddPartition registers an attached partition. Used when seeding table
// state; partition creation on the ingestion path is not routed through
// alter commands.
func (m *TableWriterMeta) AddPartition(partitionTimestamp int64) {
	m.attached[partitionTimestamp] = struct{}{}
}

// Columns returns the live column metadata, in position order.
func (m *TableWriterMeta) Columns() []ColumnMeta {
	return m.columns
}

// PartitionCount returns the number of attached partitions.
func (m *TableWriterMeta) PartitionCount() int {
	return len(m.attached)
}

// MaxUncommittedRows returns the current tunable value.
func (m *TableWriterMeta) MaxUncommittedRows() int {
	return m.maxUncommittedRows
}

// O3MaxLag returns the current commit lag tunable, in microseconds.
func (m *TableWriterMeta) O3MaxLag() int64 {
	return m.o3MaxLagMicros
}

// DedupEnabled reports whether deduplication is configured.
func (m *TableWriterMeta) DedupEnabled() bool {
	return m.dedupEnabled
}

// SquashCount returns how many squash operations ran against the table.
func (m *TableWriterMeta) SquashCount() int {
	return m.squashCount
}

// TableToken implements Service.
func (m *TableWriterMeta) TableToken() TableToken {
	return m.token
}

// PartitionBy implements Service.
func (m *TableWriterMeta) PartitionBy() string {
	return m.partitionBy
}

// AddColumn implements Service.
func (m *TableWriterMeta) AddColumn(name string, columnType types.ColumnType, symbolCapacity int, symbolCacheFlag, indexed bool, indexValueBlockCapacity int, dedupKey bool) error {
	if err := validColumnName(name); err != nil {
		return err
	}
	if columnType < 0 || columnType >= types.TypeCount {
		return dberr.New("invalid column type [name=%s, type=%d]", name, columnType).WithTable(m.token.TableName)
	}
	if m.ColumnIndex(name) >= 0 {
		return dberr.New("column already exists [name=%s]", name).WithTable(m.token.TableName)
	}
	m.columns = append(m.columns, ColumnMeta{
		Name:                    name,
		Type:                    columnType,
		SymbolCapacity:          symbolCapacity,
		SymbolCacheFlag:         symbolCacheFlag,
		Indexed:                 indexed,
		IndexValueBlockCapacity: indexValueBlockCapacity,
		DedupKey:                dedupKey,
	})
	return nil
}

// RemoveColumn implements Service.
func (m *TableWriterMeta) RemoveColumn(name string) error {
	idx := m.ColumnIndex(name)
	if idx < 0 {
		return dberr.New("column does not exist [name=%s]", name).WithTable(m.token.TableName)
	}
	if m.designatedTimestamp != "" && strings.EqualFold(name, m.designatedTimestamp) {
		return dberr.New("cannot remove designated timestamp column [name=%s]", name).WithTable(m.token.TableName)
	}
	m.columns = append(m.columns[:idx], m.columns[idx+1:]...)
	return nil
}

// RenameColumn implements Service.
func (m *TableWriterMeta) RenameColumn(oldName, newName string) error {
	idx := m.ColumnIndex(oldName)
	if idx < 0 {
		return dberr.New("column does not exist [name=%s]", oldName).WithTable(m.token.TableName)
	}
	if err := validColumnName(newName); err != nil {
		return err
	}
	if existing := m.ColumnIndex(newName); existing >= 0 && existing != idx {
		return dberr.New("column already exists [name=%s]", newName).WithTable(m.token.TableName)
	}
	if m.designatedTimestamp != "" && strings.EqualFold(oldName, m.designatedTimestamp) {
		m.designatedTimestamp = newName
	}
	m.columns[idx].Name = newName
	return nil
}

// ChangeColumnType implements Service.
func (m *TableWriterMeta) ChangeColumnType(name string, newType types.ColumnType, symbolCapacity int, symbolCacheFlag, indexed bool, indexValueBlockCapacity int) error {
	idx := m.ColumnIndex(name)
	if idx < 0 {
		return dberr.New("column does not exist [name=%s]", name).WithTable(m.token.TableName)
	}
	if newType < 0 || newType >= types.TypeCount {
		return dberr.New("invalid column type [name=%s, type=%d]", name, newType).WithTable(m.token.TableName)
	}
	if m.columns[idx].Type == newType {
		return dberr.New("column type is already %s [name=%s]", newType, name).WithTable(m.token.TableName)
	}
	col := &m.columns[idx]
	col.Type = newType
	col.SymbolCapacity = symbolCapacity
	col.SymbolCacheFlag = symbolCacheFlag
	col.Indexed = indexed
	col.IndexValueBlockCapacity = indexValueBlockCapacity
	return nil
}

// AddIndex implements Service.
func (m *TableWriterMeta) AddIndex(columnName string, indexValueBlockCapacity int) error {
	idx := m.ColumnIndex(columnName)
	if idx < 0 {
		return dberr.New("column does not exist [name=%s]", columnName).WithTable(m.token.TableName)
	}
	if m.columns[idx].Indexed {
		return dberr.New("column is already indexed [name=%s]", columnName).WithTable(m.token.TableName)
	}
	m.columns[idx].Indexed = true
	m.columns[idx].IndexValueBlockCapacity = indexValueBlockCapacity
	return nil
}

// DropIndex implements Service.
func (m *TableWriterMeta) DropIndex(columnName string) error {
	idx := m.ColumnIndex(columnName)
	if idx < 0 {
		return dberr.New("column does not exist [name=%s]", columnName).WithTable(m.token.TableName)
	}
	if !m.columns[idx].Indexed {
		return dberr.New("column is not indexed [name=%s]", columnName).WithTable(m.token.TableName)
	}
	m.columns[idx].Indexed = false
	return nil
}

// ColumnIndex implements Service. Lookup is case-insensitive, matching
// column name semantics everywhere else in the engine.
func (m *TableWriterMeta) ColumnIndex(name string) int {
	for i := range m.columns {
		if strings.EqualFold(m.columns[i].Name, name) {
			return i
		}
	}
	return -1
}

// ChangeCacheFlag implements Service.
func (m *TableWriterMeta) ChangeCacheFlag(columnIndex int, cache bool) error {
	if columnIndex < 0 || columnIndex >= len(m.columns) {
		return dberr.New("column index out of range [index=%d]", columnIndex).WithTable(m.token.TableName)
	}
	if m.columns[columnIndex].Type != types.SymbolType {
		return dberr.New("cache flag is only supported for symbol columns [name=%s]", m.columns[columnIndex].Name).WithTable(m.token.TableName)
	}
	m.columns[columnIndex].SymbolCacheFlag = cache
	return nil
}

// SetMaxUncommittedRows implements Service.
func (m *TableWriterMeta) SetMaxUncommittedRows(n int) error {
	if n < 0 {
		return dberr.New("maxUncommittedRows must be non-negative [value=%d]", n).WithTable(m.token.TableName)
	}
	m.maxUncommittedRows = n
	return nil
}

// SetO3MaxLag implements Service.
func (m *TableWriterMeta) SetO3MaxLag(lagMicros int64) error {
	if lagMicros < 0 {
		return dberr.New("o3MaxLag must be non-negative [value=%d]", lagMicros).WithTable(m.token.TableName)
	}
	m.o3MaxLagMicros = lagMicros
	return nil
}

// AttachPartition implements Service.
func (m *TableWriterMeta) AttachPartition(partitionTimestamp int64) AttachDetachStatus {
	if _, ok := m.attached[partitionTimestamp]; ok {
		return StatusPartitionExists
	}
	if _, ok := m.detached[partitionTimestamp]; !ok {
		return StatusDetachedMissing
	}
	delete(m.detached, partitionTimestamp)
	m.attached[partitionTimestamp] = struct{}{}
	return StatusOK
}

// DetachPartition implements Service.
func (m *TableWriterMeta) DetachPartition(partitionTimestamp int64) AttachDetachStatus {
	if _, ok := m.attached[partitionTimestamp]; !ok {
		return StatusPartitionMissing
	}
	delete(m.attached, partitionTimestamp)
	m.detached[partitionTimestamp] = struct{}{}
	return StatusOK
}

// RemovePartition implements Service.
func (m *TableWriterMeta) RemovePartition(partitionTimestamp int64) bool {
	if _, ok := m.attached[partitionTimestamp]; !ok {
		return false
	}
	delete(m.attached, partitionTimestamp)
	return true
}

// SquashPartitions implements Service.
func (m *TableWriterMeta) SquashPartitions() error {
	m.squashCount++
	return nil
}

// RenameTable implements Service.
func (m *TableWriterMeta) RenameTable(fromName, toName string) error {
	if !strings.EqualFold(fromName, m.token.TableName) {
		return dberr.New("table name mismatch [expected=%s, got=%s]", m.token.TableName, fromName)
	}
	if toName == "" {
		return dberr.New("new table name is empty").WithTable(m.token.TableName)
	}
	m.token.TableName = toName
	return nil
}

// EnableDeduplicationWithUpsertKeys implements Service.
func (m *TableWriterMeta) EnableDeduplicationWithUpsertKeys(columnIndexes []int64) error {
	for _, idx := range columnIndexes {
		if idx < 0 || idx >= int64(len(m.columns)) {
			return dberr.New("dedup key column index out of range [index=%d]", idx).WithTable(m.token.TableName)
		}
	}
	for i := range m.columns {
		m.columns[i].DedupKey = false
	}
	for _, idx := range columnIndexes {
		m.columns[idx].DedupKey = true
	}
	m.dedupEnabled = true
	return nil
}

// DisableDeduplication implements Service.
func (m *TableWriterMeta) DisableDeduplication() error {
	for i := range m.columns {
		m.columns[i].DedupKey = false
	}
	m.dedupEnabled = false
	return nil
}

// validColumnName rejects empty names, names starting with a digit and
// names containing characters the normalizer strips. This is the other
// half of the normalizer contract: everything NormalizeColumnName emits
// passes, everything it would have altered fails.
func validColumnName(name string) error {
	if name == "" {
		return dberr.New("column name is empty")
	}
	if name[0] >= '0' && name[0] <= '9' {
		return dberr.New("column name cannot start with a digit [name=%s]", name)
	}
	if strings.ContainsAny(name, " ?.,'\"\\/:()+-*%~#") || strings.ContainsFunc(name, func(r rune) bool {
		return r < 0x20 || r == 0x7f || r == '\uFEFF'
	}) {
		return dberr.New("invalid column name [name=%s]", name)
	}
	return nil
}
