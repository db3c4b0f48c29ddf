package renderer

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

var (
	// ErrPoolClosed is returned when submitting to a pool after Close
	ErrPoolClosed = errors.New("pool closed")

	// ErrNoWorkers is returned when a pool has no live worker left to run tasks
	ErrNoWorkers = errors.New("no live workers")
)

// PixelTask asks a worker to render one pixel
type PixelTask struct {
	X, Y int
}

// PixelUpdate is a finished pixel sent to the consumer
type PixelUpdate struct {
	X     int        `json:"x"`
	Y     int        `json:"y"`
	Pixel core.Pixel `json:"pixel"`
}

// Pool runs pixel tasks and streams each result to the output channel it was
// created with. Close waits for every submitted task and then closes that
// channel, so the pool is the channel's only sender.
type Pool interface {
	Submit(ctx context.Context, task PixelTask) error
	Close() error
	NumWorkers() int
}

// PixelSource renders a single pixel
type PixelSource interface {
	RenderPixel(x, y int) core.Pixel
}

// DefaultWorkerCount returns the number of logical CPUs
func DefaultWorkerCount() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// WorkerPool runs pixel tasks on goroutines in this process
type WorkerPool struct {
	ctx        context.Context
	source     PixelSource
	taskQueue  chan PixelTask
	out        chan<- PixelUpdate
	numWorkers int
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts numWorkers goroutines rendering from source and
// returns once all of them are running. A non-positive numWorkers uses
// DefaultWorkerCount. Workers stop early when ctx is done.
func NewWorkerPool(ctx context.Context, source PixelSource, numWorkers int, out chan<- PixelUpdate) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkerCount()
	}

	wp := &WorkerPool{
		ctx:        ctx,
		source:     source,
		taskQueue:  make(chan PixelTask, numWorkers*4),
		out:        out,
		numWorkers: numWorkers,
	}

	var ready sync.WaitGroup
	ready.Add(numWorkers)
	wp.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go wp.run(i, &ready)
	}
	ready.Wait()

	core.Logger().Debug("worker pool ready", "backend", BackendNative, "workers", numWorkers)
	return wp
}

// Submit queues a task, blocking while the queue is full
func (wp *WorkerPool) Submit(ctx context.Context, task PixelTask) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrPoolClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := wp.ctx.Err(); err != nil {
		return err
	}

	select {
	case wp.taskQueue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Close stops accepting tasks, waits for the workers to finish and closes
// the output channel
func (wp *WorkerPool) Close() error {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return ErrPoolClosed
	}
	wp.closed = true
	close(wp.taskQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
	close(wp.out)
	return nil
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (wp *WorkerPool) run(id int, ready *sync.WaitGroup) {
	defer wp.wg.Done()
	ready.Done()

	for task := range wp.taskQueue {
		if wp.ctx.Err() != nil {
			break
		}

		update := PixelUpdate{X: task.X, Y: task.Y, Pixel: wp.source.RenderPixel(task.X, task.Y)}

		select {
		case wp.out <- update:
		case <-wp.ctx.Done():
			// The consumer is gone; this worker stops, the others find out on their own
			core.Logger().Debug("worker stopped", "worker", id, "reason", wp.ctx.Err())
			return
		}
	}
}
