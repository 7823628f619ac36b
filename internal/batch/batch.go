// Package batch runs a bounded-concurrency worker pool that accepts
// embedding jobs over a queue and streams per-document progress events back
// to the caller. Jobs targeting the same collection are serialized; jobs for
// distinct collections may run concurrently up to Concurrency.
package batch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/docmodel"
	"github.com/vdex/vdex/internal/logging"
)

// Embedder is the minimal VectorService capability a job needs: embed one
// document into one collection. *service.VectorService satisfies this.
type Embedder interface {
	Embed(ctx context.Context, documentID, collectionID uuid.UUID) (docmodel.EmbeddingRecord, error)
}

// Remover deletes a document and its vectors. *service.DocumentService
// satisfies this through a thin adapter at the call site, since Delete also
// needs a vector-store resolver the executor does not carry.
type Remover interface {
	Remove(ctx context.Context, documentID uuid.UUID) error
}

// Job is one batch_embed request: add documents to collectionID, remove
// others, reporting progress on Events. Events is buffered by the caller;
// the executor never blocks sending to it (see emit).
type Job struct {
	CollectionID uuid.UUID
	Add          []uuid.UUID
	Remove       []uuid.UUID
	Events       chan<- docmodel.BatchEvent
}

// Executor is a long-lived worker pool processing Jobs from a bounded queue.
type Executor struct {
	embedder Embedder
	remover  Remover

	queue chan Job

	locksMu sync.Mutex
	locks   map[uuid.UUID]chan struct{} // one-buffered semaphore per collection

	metrics *metrics

	wg sync.WaitGroup
}

// New constructs an Executor with the given queue capacity and worker
// concurrency. Run must be called to start processing.
func New(embedder Embedder, remover Remover, queueCapacity, concurrency int, reg prometheus.Registerer) *Executor {
	if queueCapacity < 1 {
		queueCapacity = 1
	}
	if concurrency < 1 {
		concurrency = 1
	}
	e := &Executor{
		embedder: embedder,
		remover:  remover,
		queue:    make(chan Job, queueCapacity),
		locks:    make(map[uuid.UUID]chan struct{}),
		metrics:  newMetrics(reg),
	}
	for i := 0; i < concurrency; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

// Submit enqueues job, failing with apperr.Batch if the queue is saturated.
func (e *Executor) Submit(job Job) error {
	select {
	case e.queue <- job:
		e.metrics.queueDepth.Inc()
		return nil
	default:
		return apperr.New(apperr.Batch, "batch queue is saturated")
	}
}

// Shutdown stops accepting new work and waits for in-flight jobs to finish.
// Already-queued jobs are drained before workers exit.
func (e *Executor) Shutdown() {
	close(e.queue)
	e.wg.Wait()
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for job := range e.queue {
		e.metrics.queueDepth.Dec()
		e.metrics.workersBusy.Inc()
		e.runJob(job)
		e.metrics.workersBusy.Dec()
	}
}

func (e *Executor) runJob(job Job) {
	unlock := e.lockCollection(job.CollectionID)
	defer unlock()

	ctx := context.Background()
	for _, id := range job.Add {
		e.emit(job.Events, docmodel.BatchEvent{DocumentID: id, Status: docmodel.BatchProcessing})
		if _, err := e.embedder.Embed(ctx, id, job.CollectionID); err != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "batch embed failed", "document_id", id, "collection_id", job.CollectionID, "error", err)
			e.emit(job.Events, docmodel.BatchEvent{DocumentID: id, Status: docmodel.BatchFailed, Reason: err.Error()})
			continue
		}
		e.emit(job.Events, docmodel.BatchEvent{DocumentID: id, Status: docmodel.BatchDone})
	}
	for _, id := range job.Remove {
		e.emit(job.Events, docmodel.BatchEvent{DocumentID: id, Status: docmodel.BatchProcessing})
		if err := e.remover.Remove(ctx, id); err != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "batch remove failed", "document_id", id, "error", err)
			e.emit(job.Events, docmodel.BatchEvent{DocumentID: id, Status: docmodel.BatchFailed, Reason: err.Error()})
			continue
		}
		e.emit(job.Events, docmodel.BatchEvent{DocumentID: id, Status: docmodel.BatchDone})
	}
}

// emit sends ev to ch without blocking; a caller that stopped listening
// (dropped receiver) silently loses progress events, never the job itself.
func (e *Executor) emit(ch chan<- docmodel.BatchEvent, ev docmodel.BatchEvent) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

// lockCollection acquires the per-collection serialization lock, creating it
// on first use, and returns a func that releases it.
func (e *Executor) lockCollection(id uuid.UUID) func() {
	e.locksMu.Lock()
	lock, ok := e.locks[id]
	if !ok {
		lock = make(chan struct{}, 1)
		e.locks[id] = lock
	}
	e.locksMu.Unlock()

	lock <- struct{}{}
	return func() { <-lock }
}
