package alter

import (
	"errors"

	"chronodb/pkg/dberr"
	"chronodb/pkg/logging"
	"chronodb/pkg/metadata"
	"chronodb/pkg/types"
)

// Apply executes the command against the table's metadata service and
// returns the applied row count (always zero for alter commands; the
// signature is shared with data-bearing writer commands).
//
// When structureChangeAllowed is false, structural kinds are rejected with
// dberr.ErrAlterContext before any mutation occurs; the check gates the
// whole command, never individual payload items. Partition batch kinds are
// not transactional: items before a failing one stay applied.
//
// An unrecognized command value is always a critical error. It means the
// producer and consumer disagree about the protocol, which must never be
// papered over.
func (op *Operation) Apply(svc metadata.Service, structureChangeAllowed bool) (int64, error) {
	if !structureChangeAllowed && op.command.IsStructural() {
		return 0, dberr.ErrAlterContext
	}

	var err error
	switch op.command {
	case DoNothing:
	case AddColumn:
		err = op.applyAddColumn(svc)
	case DropColumn:
		err = op.applyDropColumn(svc)
	case RenameColumn:
		err = op.applyRenameColumn(svc)
	case ChangeColumnType:
		err = op.applyChangeColumnType(svc)
	case AddIndex:
		err = op.applyAddIndex(svc)
	case DropIndex:
		err = op.applyDropIndex(svc)
	case AddSymbolCache:
		err = op.applySetSymbolCache(svc, true)
	case RemoveSymbolCache:
		err = op.applySetSymbolCache(svc, false)
	case SetParamMaxUncommittedRows:
		err = op.applyParamUncommittedRows(svc)
	case SetParamCommitLag:
		err = op.applyParamO3MaxLag(svc)
	case AttachPartition:
		err = op.applyAttachDetachPartition(svc, true)
	case DetachPartition:
		err = op.applyAttachDetachPartition(svc, false)
	case DropPartition:
		err = op.applyDropPartition(svc)
	case SquashPartitions:
		err = svc.SquashPartitions()
	case RenameTable:
		err = op.applyRenameTable(svc)
	case SetDedupEnable:
		err = op.applyDedupEnable(svc)
	case SetDedupDisable:
		err = svc.DisableDeduplication()
	default:
		err = dberr.Critical("invalid alter table command [code=%d]", int16(op.command)).
			WithTable(svc.TableToken().TableName)
	}

	if err != nil && !errors.Is(err, dberr.ErrAlterContext) {
		log := logging.Component("alter")
		if dberr.IsCritical(err) {
			log.Error("could not alter table",
				"table", svc.TableToken().TableName,
				"command", op.command.String(),
				"critical", true,
				"error", err,
			)
		} else {
			log.Error("could not alter table",
				"table", svc.TableToken().TableName,
				"command", op.command.String(),
				"error", err,
			)
		}
	}
	return 0, err
}

// addColumnLongs is the payload width per added or retyped column: type
// tag, symbol capacity, cache flag, flag bits, index block capacity and
// column name position.
const addColumnLongs = 6

func (op *Operation) applyAddColumn(svc metadata.Service) error {
	lParam := 0
	for i, n := 0, op.active.size(); i < n; i++ {
		if lParam+addColumnLongs > len(op.extraInfo) {
			return dberr.Critical("invalid add column alter statement [columns=%d, longs=%d]", n, len(op.extraInfo)).
				WithTable(op.tableToken.TableName)
		}
		columnName := op.active.get(i)
		tag := op.extraInfo[lParam]
		symbolCapacity := int(op.extraInfo[lParam+1])
		cacheFlag := op.extraInfo[lParam+2] > 0
		flags := op.extraInfo[lParam+3]
		indexValueBlockCapacity := int(op.extraInfo[lParam+4])
		columnNamePosition := int(op.extraInfo[lParam+5])
		lParam += addColumnLongs

		columnType, ok := types.FromTag(int16(tag))
		if !ok {
			return dberr.New("invalid column type [name=%s, type=%d]", columnName, tag).
				WithTable(op.tableToken.TableName).
				WithPosition(columnNamePosition)
		}
		indexed := flags&flagIndexed == flagIndexed
		dedupKey := flags&flagDedupKey == flagDedupKey

		if err := svc.AddColumn(columnName, columnType, symbolCapacity, cacheFlag, indexed, indexValueBlockCapacity, dedupKey); err != nil {
			return dberr.Wrap(err, op.tableToken.TableName).WithPosition(columnNamePosition)
		}
	}
	return nil
}

func (op *Operation) applyDropColumn(svc metadata.Service) error {
	for i, n := 0, op.active.size(); i < n; i++ {
		if err := svc.RemoveColumn(op.active.get(i)); err != nil {
			return dberr.Wrap(err, op.tableToken.TableName).WithPosition(op.tableNamePosition)
		}
	}
	return nil
}

func (op *Operation) applyRenameColumn(svc metadata.Service) error {
	n := op.active.size()
	if n%2 != 0 {
		return dberr.Critical("invalid rename column alter statement [strings=%d]", n).
			WithTable(op.tableToken.TableName)
	}
	for i := 0; i < n; i += 2 {
		if err := svc.RenameColumn(op.active.get(i), op.active.get(i+1)); err != nil {
			return dberr.Wrap(err, op.tableToken.TableName).WithPosition(op.tableNamePosition)
		}
	}
	return nil
}

func (op *Operation) applyChangeColumnType(svc metadata.Service) error {
	if op.active.size() != 1 {
		return dberr.New("invalid change column type alter statement [strings=%d]", op.active.size()).
			WithTable(op.tableToken.TableName)
	}
	if len(op.extraInfo) < addColumnLongs {
		return dberr.Critical("invalid change column type alter statement [longs=%d]", len(op.extraInfo)).
			WithTable(op.tableToken.TableName)
	}

	columnName := op.active.get(0)
	tag := op.extraInfo[0]
	symbolCapacity := int(op.extraInfo[1])
	cacheFlag := op.extraInfo[2] > 0
	flags := op.extraInfo[3]
	indexValueBlockCapacity := int(op.extraInfo[4])
	columnNamePosition := int(op.extraInfo[5])

	columnType, ok := types.FromTag(int16(tag))
	if !ok {
		return dberr.New("invalid column type [name=%s, type=%d]", columnName, tag).
			WithTable(op.tableToken.TableName).
			WithPosition(columnNamePosition)
	}

	err := svc.ChangeColumnType(columnName, columnType, symbolCapacity, cacheFlag, flags&flagIndexed == flagIndexed, indexValueBlockCapacity)
	if err != nil {
		return dberr.Wrap(err, op.tableToken.TableName).WithPosition(columnNamePosition)
	}
	return nil
}

func (op *Operation) applyAddIndex(svc metadata.Service) error {
	if op.active.size() < 1 || len(op.extraInfo) < 1 {
		return dberr.Critical("invalid add index alter statement").WithTable(op.tableToken.TableName)
	}
	columnName := op.active.get(0)
	if err := svc.AddIndex(columnName, int(op.extraInfo[0])); err != nil {
		return dberr.Wrap(err, op.tableToken.TableName).WithPosition(op.tableNamePosition)
	}
	return nil
}

func (op *Operation) applyDropIndex(svc metadata.Service) error {
	if op.active.size() < 1 || len(op.extraInfo) < 1 {
		return dberr.Critical("invalid drop index alter statement").WithTable(op.tableToken.TableName)
	}
	columnName := op.active.get(0)
	columnNamePosition := int(op.extraInfo[0])
	if err := svc.DropIndex(columnName); err != nil {
		return dberr.Wrap(err, op.tableToken.TableName).WithPosition(columnNamePosition)
	}
	return nil
}

func (op *Operation) applySetSymbolCache(svc metadata.Service, cache bool) error {
	if op.active.size() < 1 {
		return dberr.Critical("invalid symbol cache alter statement").WithTable(op.tableToken.TableName)
	}
	columnName := op.active.get(0)
	columnIndex := svc.ColumnIndex(columnName)
	if columnIndex < 0 {
		return dberr.New("column does not exist [name=%s]", columnName).
			WithTable(op.tableToken.TableName).
			WithPosition(op.tableNamePosition)
	}
	if err := svc.ChangeCacheFlag(columnIndex, cache); err != nil {
		return dberr.Wrap(err, op.tableToken.TableName).WithPosition(op.tableNamePosition)
	}
	return nil
}

func (op *Operation) applyParamUncommittedRows(svc metadata.Service) error {
	if len(op.extraInfo) < 1 {
		return dberr.Critical("invalid max uncommitted rows alter statement").WithTable(op.tableToken.TableName)
	}
	if err := svc.SetMaxUncommittedRows(int(op.extraInfo[0])); err != nil {
		return dberr.Wrap(err, op.tableToken.TableName).WithPosition(op.tableNamePosition)
	}
	return nil
}

func (op *Operation) applyParamO3MaxLag(svc metadata.Service) error {
	if len(op.extraInfo) < 1 {
		return dberr.Critical("invalid commit lag alter statement").WithTable(op.tableToken.TableName)
	}
	if err := svc.SetO3MaxLag(op.extraInfo[0]); err != nil {
		return dberr.Wrap(err, op.tableToken.TableName).WithPosition(op.tableNamePosition)
	}
	return nil
}

// applyAttachDetachPartition walks (timestamp, source position) pairs.
// A non-OK status raises an error carrying that pair's source position;
// pairs already processed stay applied.
func (op *Operation) applyAttachDetachPartition(svc metadata.Service, attach bool) error {
	for i := 0; i+1 < len(op.extraInfo); i += 2 {
		partitionTimestamp := op.extraInfo[i]
		sourcePosition := int(op.extraInfo[i+1])

		var status metadata.AttachDetachStatus
		if attach {
			status = svc.AttachPartition(partitionTimestamp)
		} else {
			status = svc.DetachPartition(partitionTimestamp)
		}
		if status != metadata.StatusOK {
			return dberr.New("could not %s partition: %s [partitionTimestamp=%d, partitionBy=%s]",
				op.command.verb(), status, partitionTimestamp, svc.PartitionBy()).
				WithTable(op.tableToken.TableName).
				WithPosition(sourcePosition)
		}
	}
	return nil
}

func (op *Operation) applyDropPartition(svc metadata.Service) error {
	// extraInfo is a set of two longs per partition: timestamp, then the
	// partition name's source position
	for i := 0; i+1 < len(op.extraInfo); i += 2 {
		partitionTimestamp := op.extraInfo[i]
		if !svc.RemovePartition(partitionTimestamp) {
			return dberr.New("could not remove partition [partitionTimestamp=%d, partitionBy=%s]",
				partitionTimestamp, svc.PartitionBy()).
				WithTable(op.tableToken.TableName).
				WithPosition(int(op.extraInfo[i+1]))
		}
	}
	return nil
}

func (op *Operation) applyRenameTable(svc metadata.Service) error {
	if op.active.size() != 2 {
		return dberr.Critical("invalid rename table alter statement [strings=%d]", op.active.size()).
			WithTable(op.tableToken.TableName)
	}
	if err := svc.RenameTable(op.active.get(0), op.active.get(1)); err != nil {
		return dberr.Wrap(err, op.tableToken.TableName).WithPosition(op.tableNamePosition)
	}
	return nil
}

func (op *Operation) applyDedupEnable(svc metadata.Service) error {
	if len(op.extraInfo) == 0 {
		return dberr.New("dedup enable requires at least one upsert key column").
			WithTable(op.tableToken.TableName).
			WithPosition(op.tableNamePosition)
	}
	if err := svc.EnableDeduplicationWithUpsertKeys(op.extraInfo); err != nil {
		return dberr.Wrap(err, op.tableToken.TableName).WithPosition(op.tableNamePosition)
	}
	return nil
}

// verb names the partition action for error messages.
func (c Command) verb() string {
	switch c {
	case AttachPartition:
		return "attach"
	case DetachPartition:
		return "detach"
	default:
		return "drop"
	}
}
