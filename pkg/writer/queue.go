// Package writer carries serialized alter commands across the thread
// boundary into the table writer. Exactly one goroutine per queue applies
// commands, which is what makes the metadata service safe without locks.
package writer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"chronodb/pkg/alter"
	"chronodb/pkg/logging"
	"chronodb/pkg/metadata"
)

// task is one enqueued command: the serialized body plus the identity and
// context the wire form does not carry. The data buffer belongs to the
// task and is not touched again by the producer, so the writer side can
// borrow from it for the whole apply call.
type task struct {
	token                  metadata.TableToken
	correlationID          uuid.UUID
	data                   []byte
	structureChangeAllowed bool
	reply                  chan error
}

// CommandQueue is a single-writer command queue for one table. Producers
// serialize commands into it from any goroutine; one writer goroutine
// deserializes and applies them in order against the metadata service.
type CommandQueue struct {
	svc   metadata.Service
	tasks chan *task
	group *errgroup.Group
}

// NewCommandQueue creates a queue of the given depth over the table's
// metadata service.
func NewCommandQueue(svc metadata.Service, depth int) *CommandQueue {
	return &CommandQueue{
		svc:   svc,
		tasks: make(chan *task, depth),
	}
}

// Start launches the writer goroutine. The queue stops when ctx is
// cancelled or Close is called.
func (q *CommandQueue) Start(ctx context.Context) {
	group, gctx := errgroup.WithContext(ctx)
	q.group = group
	group.Go(func() error {
		return q.writerLoop(gctx)
	})
}

// Publish serializes the command, enqueues it and blocks until the writer
// applied it, returning the apply result. The operation itself is free
// for reuse as soon as Publish returns since the task holds its own copy
// of the wire form.
func (q *CommandQueue) Publish(ctx context.Context, op *alter.Operation, structureChangeAllowed bool) error {
	t := &task{
		token:                  op.TableToken(),
		correlationID:          op.CorrelationID(),
		data:                   op.SerializeBody(nil),
		structureChangeAllowed: structureChangeAllowed,
		reply:                  make(chan error, 1),
	}

	select {
	case q.tasks <- t:
	case <-ctx.Done():
		return fmt.Errorf("command not published: %w", ctx.Err())
	}

	select {
	case err := <-t.reply:
		return err
	case <-ctx.Done():
		// the command may still be applied by the writer; the caller
		// only loses the result
		return fmt.Errorf("command result lost: %w", ctx.Err())
	}
}

// Close stops accepting commands, waits for queued ones to finish and
// stops the writer goroutine.
func (q *CommandQueue) Close() error {
	close(q.tasks)
	if q.group != nil {
		return q.group.Wait()
	}
	return nil
}

func (q *CommandQueue) writerLoop(ctx context.Context) error {
	log := logging.Component("writer")
	// one reusable operation per writer; cleared between tasks so a
	// task's buffer is never referenced after its reply is sent
	op := alter.New()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-q.tasks:
			if !ok {
				return nil
			}
			err := q.runTask(op, t)
			if err != nil {
				log.Debug("alter command failed",
					"table", t.token.TableName,
					"correlationId", t.correlationID,
					"error", err,
				)
			}
			t.reply <- err
		}
	}
}

func (q *CommandQueue) runTask(op *alter.Operation, t *task) error {
	defer op.Clear()
	if err := op.Deserialize(t.token, t.correlationID, t.data); err != nil {
		return err
	}
	_, err := op.Apply(q.svc, t.structureChangeAllowed)
	return err
}
