// Package pipeline runs document operations unit by unit while publishing a
// single observable ProcessingState.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Lllllllleong/pdfsuite/internal/models"
)

// Observer receives every state transition.
type Observer func(models.ProcessingState)

// Pipeline owns the processing state of one operation at a time.
type Pipeline struct {
	busy atomic.Bool

	mu        sync.Mutex
	state     models.ProcessingState
	observers map[int]Observer
	nextID    int
}

func New() *Pipeline {
	return &Pipeline{
		state:     models.Idle(),
		observers: make(map[int]Observer),
	}
}

// State returns the current state.
func (p *Pipeline) State() models.ProcessingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Subscribe registers fn for all future transitions. Observers run
// synchronously on the goroutine that caused the transition.
func (p *Pipeline) Subscribe(fn Observer) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.observers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.observers, id)
		p.mu.Unlock()
	}
}

// Reset returns the pipeline to Idle. It fails with models.ErrBusy while an
// operation is running.
func (p *Pipeline) Reset() error {
	if p.busy.Load() {
		return models.ErrBusy
	}
	p.set(models.Idle())
	return nil
}

func (p *Pipeline) set(s models.ProcessingState) {
	p.mu.Lock()
	p.state = s
	observers := make([]Observer, 0, len(p.observers))
	for id := 0; id < p.nextID; id++ {
		if fn, ok := p.observers[id]; ok {
			observers = append(observers, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}

// Job describes one operation. Units are processed in order; Prepare and
// Finalize are optional.
type Job[U any] struct {
	Name     string
	Unit     string
	Units    []U
	Prepare  func(ctx context.Context) error
	Step     func(ctx context.Context, i int, u U) error
	Finalize func(ctx context.Context) ([]models.Output, error)
}

// Run executes job on p. Only one job may run on a pipeline at a time; a
// concurrent call fails immediately with models.ErrBusy without touching the
// state. Any error aborts the job, moves the state to Failed and is returned.
func Run[U any](ctx context.Context, p *Pipeline, job Job[U]) ([]models.Output, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, models.ErrBusy
	}
	defer p.busy.Store(false)

	logCtx := slog.With("op", job.Name, "units", len(job.Units))
	logCtx.Info("Operation started.")
	start := time.Now()

	p.set(models.Running(0, "Starting…"))

	if job.Prepare != nil {
		if err := job.Prepare(ctx); err != nil {
			return nil, p.fail(logCtx, job.Name, err)
		}
	}

	unit := job.Unit
	if unit == "" {
		unit = "item"
	}
	n := len(job.Units)
	for i, u := range job.Units {
		if err := ctx.Err(); err != nil {
			return nil, p.fail(logCtx, job.Name, err)
		}
		if job.Step != nil {
			if err := job.Step(ctx, i, u); err != nil {
				return nil, p.fail(logCtx, job.Name, err)
			}
		}
		progress := float64(i+1) / float64(n) * 90
		p.set(models.Running(progress, fmt.Sprintf("Processing %s %d of %d…", unit, i+1, n)))
	}

	if err := ctx.Err(); err != nil {
		return nil, p.fail(logCtx, job.Name, err)
	}
	p.set(models.Running(95, "Finalizing…"))

	var outputs []models.Output
	if job.Finalize != nil {
		var err error
		if outputs, err = job.Finalize(ctx); err != nil {
			return nil, p.fail(logCtx, job.Name, err)
		}
	}

	names := make([]string, len(outputs))
	for i, o := range outputs {
		names[i] = o.Name
	}
	p.set(models.Succeeded(names))
	logCtx.Info("Operation complete.", "outputs", len(outputs), "duration", time.Since(start).String())
	return outputs, nil
}

// fail is the single place an operation error is logged and published.
func (p *Pipeline) fail(logCtx *slog.Logger, op string, err error) error {
	logCtx.Error("Operation failed.", "error", err)
	p.set(models.Failed(err.Error()))
	return fmt.Errorf("%s: %w", op, err)
}
