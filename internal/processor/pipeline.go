package processor

import (
	"context"
	"sync"

	"github.com/mikesvoboda/foscam-ingest/internal/metrics"
)

// Pipeline is the bounded-queue/worker-pool front end to a Processor: a
// bounded work queue decouples producers (the crawler, the watcher) from
// the Processor, which drains it with a small worker pool — one worker by
// default for a GPU-bound Describer, more for a CPU-only one. Grounded on
// the teacher's queue+worker-pool shape in internal/nvr/monitor.go, minus
// its ticker scheduler: producers here push directly rather than being
// polled.
type Pipeline struct {
	processor *Processor
	queue     chan job
	wg        sync.WaitGroup
}

type job struct {
	path string
	opts Options
}

// NewPipeline builds a Pipeline with the given queue capacity and worker
// count. Both fall back to sensible defaults (64, 1) when zero or negative.
func NewPipeline(p *Processor, capacity, workers int) *Pipeline {
	if capacity <= 0 {
		capacity = 64
	}
	if workers <= 0 {
		workers = 1
	}
	pl := &Pipeline{processor: p, queue: make(chan job, capacity)}
	pl.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go pl.runWorker()
	}
	return pl
}

func (pl *Pipeline) runWorker() {
	defer pl.wg.Done()
	for j := range pl.queue {
		metrics.QueueDepth.Dec()
		pl.processor.Process(context.Background(), j.path, j.opts)
	}
}

// Offer admits a path to the queue, blocking the caller when the queue is
// full — this is the back-pressure mechanism the Crawler and Watcher both
// rely on so that a full queue holds work rather than dropping it. It
// returns early if ctx is canceled first.
func (pl *Pipeline) Offer(ctx context.Context, path string, opts Options) error {
	select {
	case pl.queue <- job{path: path, opts: opts}:
		metrics.QueueDepth.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new work and waits for in-flight and queued jobs
// to drain.
func (pl *Pipeline) Close() {
	close(pl.queue)
	pl.wg.Wait()
}
