package renderer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// WorkerFlag is the command line flag that turns the binary into a pool worker
const WorkerFlag = "-worker"

// Messages exchanged with worker processes, one JSON object per line.
// The parent sends a handshake, the child answers ready, and then each task
// is answered by exactly one result.
type (
	handshakeMessage struct {
		Job *RenderJob `json:"job"`
	}

	readyMessage struct {
		Ready bool   `json:"ready"`
		Error string `json:"error,omitempty"`
	}

	taskMessage struct {
		X int `json:"x"`
		Y int `json:"y"`
	}

	resultMessage struct {
		X int   `json:"x"`
		Y int   `json:"y"`
		R uint8 `json:"r"`
		G uint8 `json:"g"`
		B uint8 `json:"b"`
	}
)

// CommandFunc creates the command for one worker process. The command must
// run ServeWorker on its stdin and stdout. The pool kills its children when
// ctx is done, so the command does not have to be bound to ctx.
type CommandFunc func(ctx context.Context) (*exec.Cmd, error)

// DefaultCommand re-executes the current binary with WorkerFlag
func DefaultCommand(ctx context.Context) (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	return exec.CommandContext(ctx, exe, WorkerFlag), nil
}

// ServeWorker is the worker process side of ProcessPool. It reads the job,
// answers ready and then renders tasks until r reaches EOF.
func ServeWorker(r io.Reader, w io.Writer) error {
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(w)

	var hs handshakeMessage
	if err := dec.Decode(&hs); err != nil {
		return fmt.Errorf("read handshake: %w", err)
	}
	if hs.Job == nil {
		_ = enc.Encode(readyMessage{Error: "handshake carries no job"})
		return fmt.Errorf("%w: handshake carries no job", ErrInvalidJob)
	}

	renderer, err := NewPixelRenderer(*hs.Job)
	if err != nil {
		_ = enc.Encode(readyMessage{Error: err.Error()})
		return err
	}
	if err := enc.Encode(readyMessage{Ready: true}); err != nil {
		return fmt.Errorf("write ready: %w", err)
	}

	for {
		var task taskMessage
		if err := dec.Decode(&task); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read task: %w", err)
		}

		px := renderer.RenderPixel(task.X, task.Y)
		result := resultMessage{X: task.X, Y: task.Y, R: px.R, G: px.G, B: px.B}
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
}

// workerProcess is the parent's handle on one child
type workerProcess struct {
	id    int
	cmd   *exec.Cmd
	stdin io.WriteCloser
	enc   *json.Encoder
	dec   *json.Decoder
}

// kill stops the child and reaps it
func (w *workerProcess) kill() {
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
	_ = w.cmd.Wait()
}

// roundTrip sends one task and waits for its result
func (w *workerProcess) roundTrip(task PixelTask) (core.Pixel, error) {
	if err := w.enc.Encode(taskMessage{X: task.X, Y: task.Y}); err != nil {
		return core.Pixel{}, fmt.Errorf("send task: %w", err)
	}
	var result resultMessage
	if err := w.dec.Decode(&result); err != nil {
		return core.Pixel{}, fmt.Errorf("read result: %w", err)
	}
	if result.X != task.X || result.Y != task.Y {
		return core.Pixel{}, fmt.Errorf("result for (%d,%d) answers task (%d,%d)", result.X, result.Y, task.X, task.Y)
	}
	return core.Pixel{R: result.R, G: result.G, B: result.B}, nil
}

// ProcessPool runs pixel tasks in child processes. Each child has at most one
// task in flight; a task whose child dies is handed to a surviving sibling.
type ProcessPool struct {
	ctx      context.Context
	workers  []*workerProcess
	tasks    chan PixelTask
	retry    chan PixelTask
	out      chan<- PixelUpdate
	loops    sync.WaitGroup
	quit     chan struct{}
	idle     chan struct{}
	allDead  chan struct{}
	deadOnce sync.Once

	alive     atomic.Int32
	remaining atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewProcessPool starts numWorkers child processes, sends each of them job
// and returns once all have answered ready. If any child fails to start, all
// of them are killed and the error is returned.
func NewProcessPool(ctx context.Context, job RenderJob, numWorkers int, out chan<- PixelUpdate, command CommandFunc) (*ProcessPool, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if numWorkers <= 0 {
		numWorkers = DefaultWorkerCount()
	}
	if command == nil {
		command = DefaultCommand
	}

	pp := &ProcessPool{
		ctx:     ctx,
		tasks:   make(chan PixelTask, numWorkers*4),
		retry:   make(chan PixelTask, numWorkers),
		out:     out,
		quit:    make(chan struct{}),
		idle:    make(chan struct{}, 1),
		allDead: make(chan struct{}),
	}

	for i := 0; i < numWorkers; i++ {
		w, err := startWorkerProcess(ctx, i, job, command)
		if err != nil {
			for _, started := range pp.workers {
				started.kill()
			}
			return nil, fmt.Errorf("start worker %d: %w", i, err)
		}
		pp.workers = append(pp.workers, w)
	}

	pp.alive.Store(int32(numWorkers))
	pp.loops.Add(numWorkers)
	for _, w := range pp.workers {
		go pp.run(w)
	}

	core.Logger().Debug("worker pool ready", "backend", BackendProcess, "workers", numWorkers)
	return pp, nil
}

// startWorkerProcess launches one child and completes its handshake
func startWorkerProcess(ctx context.Context, id int, job RenderJob, command CommandFunc) (*workerProcess, error) {
	cmd, err := command(ctx)
	if err != nil {
		return nil, err
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	w := &workerProcess{
		id:    id,
		cmd:   cmd,
		stdin: stdin,
		enc:   json.NewEncoder(stdin),
		dec:   json.NewDecoder(stdout),
	}

	if err := w.enc.Encode(handshakeMessage{Job: &job}); err != nil {
		w.kill()
		return nil, fmt.Errorf("send handshake: %w", err)
	}
	var ready readyMessage
	if err := w.dec.Decode(&ready); err != nil {
		w.kill()
		return nil, fmt.Errorf("read ready: %w", err)
	}
	if !ready.Ready {
		w.kill()
		return nil, fmt.Errorf("worker refused job: %s", ready.Error)
	}
	return w, nil
}

// Submit queues a task, blocking while the queue is full
func (pp *ProcessPool) Submit(ctx context.Context, task PixelTask) error {
	pp.mu.RLock()
	defer pp.mu.RUnlock()

	if pp.closed {
		return ErrPoolClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pp.ctx.Err(); err != nil {
		return err
	}
	if pp.alive.Load() == 0 {
		return ErrNoWorkers
	}

	pp.remaining.Add(1)
	select {
	case pp.tasks <- task:
		return nil
	case <-ctx.Done():
		pp.finish()
		return ctx.Err()
	case <-pp.ctx.Done():
		pp.finish()
		return pp.ctx.Err()
	case <-pp.allDead:
		pp.finish()
		return ErrNoWorkers
	}
}

// Close waits until every submitted task has completed, shuts the children
// down and closes the output channel. It returns ErrNoWorkers if all children
// died with tasks still outstanding.
func (pp *ProcessPool) Close() error {
	pp.mu.Lock()
	if pp.closed {
		pp.mu.Unlock()
		return ErrPoolClosed
	}
	pp.closed = true
	pp.mu.Unlock()

	var err error
wait:
	for pp.remaining.Load() > 0 {
		select {
		case <-pp.idle:
		case <-pp.ctx.Done():
			break wait
		case <-pp.allDead:
			err = fmt.Errorf("%w: %d tasks unfinished", ErrNoWorkers, pp.remaining.Load())
			break wait
		}
	}

	// Loops blocked on a child's reply only return once that child is gone
	if pp.ctx.Err() != nil {
		for _, w := range pp.workers {
			if w.cmd.Process != nil {
				_ = w.cmd.Process.Kill()
			}
		}
	}

	close(pp.quit)
	pp.loops.Wait()

	// EOF on stdin ends ServeWorker cleanly
	for _, w := range pp.workers {
		_ = w.stdin.Close()
		_ = w.cmd.Wait()
	}

	close(pp.out)
	return err
}

// NumWorkers returns the number of child processes the pool started with
func (pp *ProcessPool) NumWorkers() int {
	return len(pp.workers)
}

// finish marks one submitted task as done
func (pp *ProcessPool) finish() {
	if pp.remaining.Add(-1) == 0 {
		select {
		case pp.idle <- struct{}{}:
		default:
		}
	}
}

// run feeds tasks to one child until the pool closes or the child dies
func (pp *ProcessPool) run(w *workerProcess) {
	defer pp.loops.Done()

	for {
		var task PixelTask
		select {
		case task = <-pp.retry:
		case task = <-pp.tasks:
		case <-pp.quit:
			return
		case <-pp.ctx.Done():
			return
		}

		px, err := w.roundTrip(task)
		if err != nil {
			if pp.ctx.Err() != nil {
				return
			}
			// Never blocks: each child requeues at most once and retry holds one slot per child
			pp.retry <- task
			pp.markDead(w, err)
			return
		}

		select {
		case pp.out <- PixelUpdate{X: task.X, Y: task.Y, Pixel: px}:
			pp.finish()
		case <-pp.ctx.Done():
			core.Logger().Debug("worker stopped", "worker", w.id, "reason", pp.ctx.Err())
			return
		}
	}
}

// markDead records that a child can no longer take tasks
func (pp *ProcessPool) markDead(w *workerProcess, cause error) {
	core.Logger().Warn("worker process died", "worker", w.id, "err", cause)
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
	if pp.alive.Add(-1) == 0 {
		pp.deadOnce.Do(func() { close(pp.allDead) })
	}
}
