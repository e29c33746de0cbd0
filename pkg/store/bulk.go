package store

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize is the item count that triggers a batch hand-off.
	DefaultBatchSize = 10_000
	// DefaultWorkers is the number of concurrent writer workers.
	DefaultWorkers = 10
)

// BulkWriterParams configures a BulkWriter. Zero values fall back to the
// defaults; Window defaults to Workers.
type BulkWriterParams struct {
	BatchSize int
	Workers   int
	// Window bounds the number of filled batches handed off but not yet
	// picked up by a worker. Together with the worker count it caps the
	// in-flight memory of the pipeline.
	Window int
}

// BulkWriter batches write items and streams them to a Store through a fixed
// pool of workers. The hand-off channel is bounded: when every worker is busy
// and the window is full, Push blocks, throttling the producer to the store's
// ingest speed.
//
// A BulkWriter is single-producer. Push and Flush must be called from one
// goroutine, and Flush exactly once.
type BulkWriter struct {
	batchSize int
	buf       []Item
	batches   chan []Item
	group     *errgroup.Group
	groupCtx  context.Context
	closed    bool
}

// NewBulkWriter starts the worker pool and returns a writer ready for Push.
// Any store error cancels the pool context, which unblocks a waiting
// producer; the error surfaces from the pending Push or from Flush.
func NewBulkWriter(ctx context.Context, s Store, params BulkWriterParams) *BulkWriter {
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	workers := params.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	window := params.Window
	if window <= 0 {
		window = workers
	}

	group, groupCtx := errgroup.WithContext(ctx)
	w := &BulkWriter{
		batchSize: batchSize,
		buf:       make([]Item, 0, batchSize),
		batches:   make(chan []Item, window),
		group:     group,
		groupCtx:  groupCtx,
	}

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			for {
				select {
				case batch, ok := <-w.batches:
					if !ok {
						return nil
					}
					if err := s.BulkInsert(groupCtx, batch); err != nil {
						return fmt.Errorf("bulk insert of %d items failed: %w", len(batch), err)
					}
				case <-groupCtx.Done():
					return groupCtx.Err()
				}
			}
		})
	}

	return w
}

// Push appends items to the current batch and hands the batch off once it
// reaches the threshold. Items of one call are never split across a batch
// boundary, so a vertex and its properties pushed together always travel in
// the same batch.
func (w *BulkWriter) Push(ctx context.Context, items ...Item) error {
	w.buf = append(w.buf, items...)
	if len(w.buf) < w.batchSize {
		return nil
	}
	return w.handOff(ctx)
}

// Flush hands off the remaining partial batch, signals the workers that no
// more work is coming, and waits for every outstanding batch to complete.
func (w *BulkWriter) Flush(ctx context.Context) error {
	if len(w.buf) > 0 && !w.closed {
		select {
		case w.batches <- w.buf:
			w.buf = nil
		case <-w.groupCtx.Done():
			// A worker failed; its error surfaces from Wait below.
		case <-ctx.Done():
		}
	}
	w.close()
	if err := w.group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// handOff transfers ownership of the filled buffer to the worker pool,
// blocking while the window is full.
func (w *BulkWriter) handOff(ctx context.Context) error {
	if w.closed {
		return w.group.Wait()
	}
	batch := w.buf
	w.buf = make([]Item, 0, w.batchSize)
	select {
	case w.batches <- batch:
		return nil
	case <-w.groupCtx.Done():
		w.close()
		return w.group.Wait()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *BulkWriter) close() {
	if !w.closed {
		w.closed = true
		close(w.batches)
	}
}
