package writer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"chronodb/pkg/alter"
	"chronodb/pkg/dberr"
	"chronodb/pkg/metadata"
	"chronodb/pkg/types"
)

func newQueueUnderTest(t *testing.T) (*CommandQueue, *metadata.TableWriterMeta, metadata.TableToken) {
	t.Helper()
	token := metadata.TableToken{TableName: "trades", TableID: 1}
	meta := metadata.NewTableWriterMeta(token, "DAY", "ts", []metadata.ColumnMeta{
		{Name: "ts", Type: types.TimestampType},
		{Name: "price", Type: types.DoubleType},
	})
	q := NewCommandQueue(meta, 8)
	q.Start(context.Background())
	return q, meta, token
}

func TestPublishAppliesCommand(t *testing.T) {
	q, meta, token := newQueueUnderTest(t)
	defer q.Close()

	op := alter.New().OfAddColumn(token, 12).
		AddColumnToList("venue", 30, types.SymbolType, 128, true, false, 256, false)
	if err := q.Publish(context.Background(), op, true); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if meta.ColumnIndex("venue") < 0 {
		t.Error("published add column did not reach the table metadata")
	}
}

func TestPublishReturnsApplyError(t *testing.T) {
	q, meta, token := newQueueUnderTest(t)
	defer q.Close()

	op := alter.New().OfDropColumn(token, 12, "no_such_column")
	err := q.Publish(context.Background(), op, true)
	if err == nil {
		t.Fatal("expected the apply error to come back through Publish")
	}
	if meta.ColumnIndex("price") < 0 {
		t.Error("failed command must not disturb existing columns")
	}
}

func TestPublishStructuralGate(t *testing.T) {
	q, meta, token := newQueueUnderTest(t)
	defer q.Close()

	op := alter.New().OfDropColumn(token, 12, "price")
	err := q.Publish(context.Background(), op, false)
	if !errors.Is(err, dberr.ErrAlterContext) {
		t.Fatalf("expected ErrAlterContext, got %v", err)
	}
	if meta.ColumnIndex("price") < 0 {
		t.Error("gated command must not mutate the table")
	}
}

func TestOperationReusableAfterPublish(t *testing.T) {
	q, meta, token := newQueueUnderTest(t)
	defer q.Close()

	op := alter.New()
	for i := 0; i < 3; i++ {
		op.OfAddColumn(token, 12).
			AddColumnToList(fmt.Sprintf("c%d", i), 30, types.IntType, 0, false, false, 0, false)
		if err := q.Publish(context.Background(), op, true); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		if meta.ColumnIndex(fmt.Sprintf("c%d", i)) < 0 {
			t.Errorf("column c%d missing", i)
		}
	}
}

func TestConcurrentPublishers(t *testing.T) {
	q, meta, token := newQueueUnderTest(t)
	defer q.Close()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			op := alter.New().OfAddColumn(token, 12).
				AddColumnToList(fmt.Sprintf("g%d", i), 30, types.LongType, 0, false, false, 0, false)
			errs[i] = q.Publish(context.Background(), op, true)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("publisher %d failed: %v", i, err)
		}
		if meta.ColumnIndex(fmt.Sprintf("g%d", i)) < 0 {
			t.Errorf("column g%d missing", i)
		}
	}
}

func TestPublishAfterContextCancelled(t *testing.T) {
	token := metadata.TableToken{TableName: "trades", TableID: 1}
	meta := metadata.NewTableWriterMeta(token, "DAY", "", nil)
	// No Start: nothing drains the queue, so a zero-depth channel blocks
	// and cancellation must release the producer.
	q := NewCommandQueue(meta, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := alter.New().OfSetMaxUncommittedRows(token, 12, 1000)
	err := q.Publish(ctx, op, true)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCloseWaitsForQueuedCommands(t *testing.T) {
	q, meta, token := newQueueUnderTest(t)

	op := alter.New().OfAddColumn(token, 12).
		AddColumnToList("late", 30, types.IntType, 0, false, false, 0, false)
	if err := q.Publish(context.Background(), op, true); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if meta.ColumnIndex("late") < 0 {
		t.Error("command published before Close was lost")
	}
}
