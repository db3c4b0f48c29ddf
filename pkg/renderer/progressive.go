package renderer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	Shuffle     bool  // Submit pixels in a random order instead of scanline order
	ShuffleSeed int64 // Seed for the submission order
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		Shuffle:     true,
		ShuffleSeed: 0,
	}
}

// Coordinates lists every pixel of a width x height image in row-major order
func Coordinates(width, height int) []PixelTask {
	tasks := make([]PixelTask, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			tasks = append(tasks, PixelTask{X: x, Y: y})
		}
	}
	return tasks
}

// Shuffle permutes tasks in place. The permutation depends only on seed and
// len(tasks), so the reveal order is reproducible.
func Shuffle(tasks []PixelTask, seed int64) {
	random := rand.New(rand.NewSource(seed))
	random.Shuffle(len(tasks), func(i, j int) {
		tasks[i], tasks[j] = tasks[j], tasks[i]
	})
}

// Progressive submits every pixel of an image to a pool so that finished
// pixels trickle in evenly spread across the image
type Progressive struct {
	width, height int
	config        ProgressiveConfig
}

// NewProgressive creates a progressive render of a width x height image
func NewProgressive(width, height int, config ProgressiveConfig) *Progressive {
	return &Progressive{width: width, height: height, config: config}
}

// Order returns the submission order
func (p *Progressive) Order() []PixelTask {
	tasks := Coordinates(p.width, p.height)
	if p.config.Shuffle {
		Shuffle(tasks, p.config.ShuffleSeed)
	}
	return tasks
}

// Render submits every pixel to pool and closes it once all of them are done.
// Results arrive on the pool's output channel; the returned channel reports
// submission or shutdown errors and is closed when the render is over.
func (p *Progressive) Render(ctx context.Context, pool Pool) <-chan error {
	errChan := make(chan error, 2)

	go func() {
		defer close(errChan)

		start := time.Now()
		tasks := p.Order()
		core.Logger().Info("render started", "pixels", len(tasks), "workers", pool.NumWorkers())

		submitted := 0
		for _, task := range tasks {
			if err := pool.Submit(ctx, task); err != nil {
				errChan <- fmt.Errorf("submit pixel (%d,%d): %w", task.X, task.Y, err)
				break
			}
			submitted++
		}

		if err := pool.Close(); err != nil {
			errChan <- fmt.Errorf("close pool: %w", err)
		}

		core.Logger().Info("render finished", "submitted", submitted, "elapsed", time.Since(start))
	}()

	return errChan
}
