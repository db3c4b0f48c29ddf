package renderer

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
)

func TestCoordinates(t *testing.T) {
	tasks := Coordinates(3, 2)
	expected := []PixelTask{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}}

	if !reflect.DeepEqual(tasks, expected) {
		t.Errorf("Expected row-major %v, got %v", expected, tasks)
	}
	if len(Coordinates(0, 5)) != 0 {
		t.Error("Empty image should have no coordinates")
	}
}

func TestShuffle_Permutation(t *testing.T) {
	tasks := Coordinates(17, 11)
	Shuffle(tasks, 123)

	if reflect.DeepEqual(tasks, Coordinates(17, 11)) {
		t.Error("Shuffle left the scanline order untouched")
	}

	sorted := append([]PixelTask(nil), tasks...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})
	if !reflect.DeepEqual(sorted, Coordinates(17, 11)) {
		t.Error("Shuffle should be a permutation of the coordinates")
	}
}

func TestShuffle_Deterministic(t *testing.T) {
	a := Coordinates(10, 10)
	b := Coordinates(10, 10)
	c := Coordinates(10, 10)
	Shuffle(a, 7)
	Shuffle(b, 7)
	Shuffle(c, 8)

	if !reflect.DeepEqual(a, b) {
		t.Error("Same seed should give the same order")
	}
	if reflect.DeepEqual(a, c) {
		t.Error("Different seeds should give different orders")
	}
}

func TestProgressive_Order(t *testing.T) {
	scanline := NewProgressive(4, 3, ProgressiveConfig{Shuffle: false})
	if !reflect.DeepEqual(scanline.Order(), Coordinates(4, 3)) {
		t.Error("Unshuffled order should be row-major")
	}

	shuffled := NewProgressive(4, 3, ProgressiveConfig{Shuffle: true, ShuffleSeed: 99})
	expected := Coordinates(4, 3)
	Shuffle(expected, 99)
	if !reflect.DeepEqual(shuffled.Order(), expected) {
		t.Error("Shuffled order should match Shuffle with the configured seed")
	}
}

// recordingPool runs tasks synchronously and remembers the order
type recordingPool struct {
	out       chan PixelUpdate
	submitted []PixelTask
	failAfter int
	closed    bool
}

func (p *recordingPool) Submit(_ context.Context, task PixelTask) error {
	if p.failAfter >= 0 && len(p.submitted) == p.failAfter {
		return ErrNoWorkers
	}
	p.submitted = append(p.submitted, task)
	p.out <- PixelUpdate{X: task.X, Y: task.Y}
	return nil
}

func (p *recordingPool) Close() error {
	p.closed = true
	close(p.out)
	return nil
}

func (p *recordingPool) NumWorkers() int { return 1 }

func TestProgressive_Render(t *testing.T) {
	pool := &recordingPool{out: make(chan PixelUpdate, 64), failAfter: -1}
	progressive := NewProgressive(8, 8, DefaultProgressiveConfig())

	errs := progressive.Render(context.Background(), pool)
	for err := range errs {
		t.Errorf("Unexpected error: %v", err)
	}

	if !pool.closed {
		t.Error("Render should close the pool")
	}
	if !reflect.DeepEqual(pool.submitted, progressive.Order()) {
		t.Error("Render should submit in the progressive order")
	}
	if n := len(pool.out); n != 64 {
		t.Errorf("Expected 64 updates, got %d", n)
	}
}

func TestProgressive_RenderStopsOnSubmitError(t *testing.T) {
	pool := &recordingPool{out: make(chan PixelUpdate, 64), failAfter: 5}
	errs := NewProgressive(8, 8, DefaultProgressiveConfig()).Render(context.Background(), pool)

	var got []error
	for err := range errs {
		got = append(got, err)
	}

	if len(got) != 1 || !errors.Is(got[0], ErrNoWorkers) {
		t.Errorf("Expected one ErrNoWorkers, got %v", got)
	}
	if len(pool.submitted) != 5 || !pool.closed {
		t.Errorf("Expected 5 submissions and a closed pool, got %d (closed=%v)", len(pool.submitted), pool.closed)
	}
}
