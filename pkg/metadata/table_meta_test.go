package metadata

import (
	"testing"

	"chronodb/pkg/types"
)

func newTestMeta() *TableWriterMeta {
	return NewTableWriterMeta(
		TableToken{TableName: "trades", TableID: 7},
		"DAY",
		"ts",
		[]ColumnMeta{
			{Name: "ts", Type: types.TimestampType},
			{Name: "price", Type: types.DoubleType},
			{Name: "venue", Type: types.SymbolType, SymbolCapacity: 128, SymbolCacheFlag: true},
		},
	)
}

func TestAddColumn(t *testing.T) {
	m := newTestMeta()
	if err := m.AddColumn("qty", types.LongType, 0, false, false, 0, false); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}
	if got := m.ColumnIndex("qty"); got != 3 {
		t.Errorf("ColumnIndex(qty) = %d, want 3", got)
	}

	// Duplicate detection is case-insensitive.
	if err := m.AddColumn("QTY", types.IntType, 0, false, false, 0, false); err == nil {
		t.Error("expected case-insensitive duplicate to be rejected")
	}
	if err := m.AddColumn("", types.IntType, 0, false, false, 0, false); err == nil {
		t.Error("expected empty name to be rejected")
	}
	if err := m.AddColumn("2fast", types.IntType, 0, false, false, 0, false); err == nil {
		t.Error("expected name starting with a digit to be rejected")
	}
	if err := m.AddColumn("a b", types.IntType, 0, false, false, 0, false); err == nil {
		t.Error("expected name with a space to be rejected")
	}
	if err := m.AddColumn("bad", types.TypeCount, 0, false, false, 0, false); err == nil {
		t.Error("expected out of range type to be rejected")
	}
}

func TestRemoveColumn(t *testing.T) {
	m := newTestMeta()
	if err := m.RemoveColumn("price"); err != nil {
		t.Fatalf("RemoveColumn failed: %v", err)
	}
	if m.ColumnIndex("price") >= 0 {
		t.Error("price still present after removal")
	}
	if err := m.RemoveColumn("price"); err == nil {
		t.Error("expected removing a missing column to fail")
	}
	if err := m.RemoveColumn("ts"); err == nil {
		t.Error("expected designated timestamp column removal to fail")
	}
	if err := m.RemoveColumn("TS"); err == nil {
		t.Error("designated timestamp protection should be case-insensitive")
	}
}

func TestRenameColumn(t *testing.T) {
	m := newTestMeta()
	if err := m.RenameColumn("price", "px"); err != nil {
		t.Fatalf("RenameColumn failed: %v", err)
	}
	if m.ColumnIndex("px") != 1 || m.ColumnIndex("price") >= 0 {
		t.Error("rename did not replace the column name")
	}

	if err := m.RenameColumn("missing", "x"); err == nil {
		t.Error("expected renaming a missing column to fail")
	}
	if err := m.RenameColumn("px", "venue"); err == nil {
		t.Error("expected rename onto an existing name to fail")
	}
	if err := m.RenameColumn("px", "bad name"); err == nil {
		t.Error("expected rename to an invalid name to fail")
	}

	// Renaming the designated timestamp column follows it.
	if err := m.RenameColumn("ts", "event_time"); err != nil {
		t.Fatalf("renaming designated timestamp failed: %v", err)
	}
	if err := m.RemoveColumn("event_time"); err == nil {
		t.Error("designated timestamp protection should follow the rename")
	}
}

func TestChangeColumnType(t *testing.T) {
	m := newTestMeta()
	if err := m.ChangeColumnType("price", types.StringType, 0, false, false, 0); err != nil {
		t.Fatalf("ChangeColumnType failed: %v", err)
	}
	if m.Columns()[1].Type != types.StringType {
		t.Errorf("column type = %v, want STRING", m.Columns()[1].Type)
	}
	if err := m.ChangeColumnType("price", types.StringType, 0, false, false, 0); err == nil {
		t.Error("expected no-op type change to be rejected")
	}
	if err := m.ChangeColumnType("missing", types.IntType, 0, false, false, 0); err == nil {
		t.Error("expected change on a missing column to fail")
	}
}

func TestIndexLifecycle(t *testing.T) {
	m := newTestMeta()
	if err := m.AddIndex("venue", 512); err != nil {
		t.Fatalf("AddIndex failed: %v", err)
	}
	if !m.Columns()[2].Indexed || m.Columns()[2].IndexValueBlockCapacity != 512 {
		t.Error("index metadata not recorded")
	}
	if err := m.AddIndex("venue", 512); err == nil {
		t.Error("expected double index to fail")
	}
	if err := m.DropIndex("venue"); err != nil {
		t.Fatalf("DropIndex failed: %v", err)
	}
	if err := m.DropIndex("venue"); err == nil {
		t.Error("expected dropping a missing index to fail")
	}
}

func TestChangeCacheFlag(t *testing.T) {
	m := newTestMeta()
	venueIdx := m.ColumnIndex("venue")
	if err := m.ChangeCacheFlag(venueIdx, false); err != nil {
		t.Fatalf("ChangeCacheFlag failed: %v", err)
	}
	if m.Columns()[venueIdx].SymbolCacheFlag {
		t.Error("cache flag not cleared")
	}
	if err := m.ChangeCacheFlag(m.ColumnIndex("price"), true); err == nil {
		t.Error("expected cache flag on a non-symbol column to fail")
	}
	if err := m.ChangeCacheFlag(99, true); err == nil {
		t.Error("expected out of range index to fail")
	}
}

func TestTunables(t *testing.T) {
	m := newTestMeta()
	if err := m.SetMaxUncommittedRows(50000); err != nil {
		t.Fatalf("SetMaxUncommittedRows failed: %v", err)
	}
	if m.MaxUncommittedRows() != 50000 {
		t.Errorf("MaxUncommittedRows = %d, want 50000", m.MaxUncommittedRows())
	}
	if err := m.SetMaxUncommittedRows(-1); err == nil {
		t.Error("expected negative maxUncommittedRows to fail")
	}
	if err := m.SetO3MaxLag(300_000_000); err != nil {
		t.Fatalf("SetO3MaxLag failed: %v", err)
	}
	if m.O3MaxLag() != 300_000_000 {
		t.Errorf("O3MaxLag = %d", m.O3MaxLag())
	}
	if err := m.SetO3MaxLag(-1); err == nil {
		t.Error("expected negative o3MaxLag to fail")
	}
}

func TestPartitionLifecycle(t *testing.T) {
	m := newTestMeta()
	m.AddPartition(100)
	m.AddPartition(200)

	if got := m.DetachPartition(100); got != StatusOK {
		t.Fatalf("DetachPartition = %v, want OK", got)
	}
	if got := m.DetachPartition(100); got != StatusPartitionMissing {
		t.Errorf("detaching twice = %v, want partition missing", got)
	}
	if got := m.AttachPartition(100); got != StatusOK {
		t.Fatalf("AttachPartition = %v, want OK", got)
	}
	if got := m.AttachPartition(100); got != StatusPartitionExists {
		t.Errorf("attaching an attached partition = %v, want partition exists", got)
	}
	if got := m.AttachPartition(999); got != StatusDetachedMissing {
		t.Errorf("attaching an unknown partition = %v, want detached missing", got)
	}

	if !m.RemovePartition(200) {
		t.Error("RemovePartition(200) = false, want true")
	}
	if m.RemovePartition(200) {
		t.Error("removing twice should report false")
	}
	if m.PartitionCount() != 1 {
		t.Errorf("PartitionCount = %d, want 1", m.PartitionCount())
	}

	if err := m.SquashPartitions(); err != nil {
		t.Fatalf("SquashPartitions failed: %v", err)
	}
	if m.SquashCount() != 1 {
		t.Errorf("SquashCount = %d, want 1", m.SquashCount())
	}
}

func TestRenameTable(t *testing.T) {
	m := newTestMeta()
	if err := m.RenameTable("TRADES", "trades_v2"); err != nil {
		t.Fatalf("RenameTable failed: %v", err)
	}
	if m.TableToken().TableName != "trades_v2" {
		t.Errorf("table name = %q", m.TableToken().TableName)
	}
	if m.TableToken().TableID != 7 {
		t.Errorf("table ID must survive a rename, got %d", m.TableToken().TableID)
	}
	if err := m.RenameTable("wrong", "x"); err == nil {
		t.Error("expected a from-name mismatch to fail")
	}
	if err := m.RenameTable("trades_v2", ""); err == nil {
		t.Error("expected an empty new name to fail")
	}
}

func TestDeduplication(t *testing.T) {
	m := newTestMeta()
	if err := m.EnableDeduplicationWithUpsertKeys([]int64{0, 2}); err != nil {
		t.Fatalf("EnableDeduplicationWithUpsertKeys failed: %v", err)
	}
	if !m.DedupEnabled() {
		t.Error("dedup not enabled")
	}
	cols := m.Columns()
	if !cols[0].DedupKey || cols[1].DedupKey || !cols[2].DedupKey {
		t.Errorf("dedup keys = [%v %v %v], want [true false true]", cols[0].DedupKey, cols[1].DedupKey, cols[2].DedupKey)
	}

	// Re-enabling replaces the key set rather than extending it.
	if err := m.EnableDeduplicationWithUpsertKeys([]int64{1}); err != nil {
		t.Fatalf("re-enable failed: %v", err)
	}
	cols = m.Columns()
	if cols[0].DedupKey || !cols[1].DedupKey || cols[2].DedupKey {
		t.Errorf("dedup keys after re-enable = [%v %v %v], want [false true false]", cols[0].DedupKey, cols[1].DedupKey, cols[2].DedupKey)
	}

	if err := m.EnableDeduplicationWithUpsertKeys([]int64{99}); err == nil {
		t.Error("expected out of range dedup key index to fail")
	}

	if err := m.DisableDeduplication(); err != nil {
		t.Fatalf("DisableDeduplication failed: %v", err)
	}
	if m.DedupEnabled() || m.Columns()[1].DedupKey {
		t.Error("disable did not clear dedup state")
	}
}
