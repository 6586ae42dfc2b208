// Package worker runs merge, split and compress jobs on a dedicated goroutine
// that talks to its callers only through messages. Each message carries a
// CloudEvent describing progress, success or failure.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/pipeline"
	"github.com/Lllllllleong/pdfsuite/internal/services"
)

// Event types emitted for a job.
const (
	EventProgress  = "io.pdfsuite.job.progress"
	EventSucceeded = "io.pdfsuite.job.succeeded"
	EventFailed    = "io.pdfsuite.job.failed"

	eventSource = "pdfsuite/worker"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker is closed")

// Kind selects the operation a job runs.
type Kind string

const (
	KindMerge      Kind = "merge"
	KindSplit      Kind = "split"
	KindSplitPages Kind = "split-pages"
	KindCompress   Kind = "compress"
)

// Job is a unit of work for the worker. Merge uses all Files; the other kinds
// use the first.
type Job struct {
	ID     string
	Kind   Kind
	Files  []models.UploadedFile
	Ranges []models.PageRange
}

// Message is one reply to a submitted job. Outputs is only set on the success
// message; the receiver owns the buffers from then on.
type Message struct {
	Event   cloudevents.Event
	Outputs []models.Output
}

// Terminal reports whether m is the last message of its job.
func (m Message) Terminal() bool {
	return m.Event.Type() != EventProgress
}

// Progress decodes a progress message.
func (m Message) Progress() (models.JobProgressPayload, error) {
	var p models.JobProgressPayload
	err := m.Event.DataAs(&p)
	return p, err
}

// Succeeded decodes a success message.
func (m Message) Succeeded() (models.JobSucceededPayload, error) {
	var p models.JobSucceededPayload
	err := m.Event.DataAs(&p)
	return p, err
}

// Failed decodes a failure message.
func (m Message) Failed() (models.JobFailedPayload, error) {
	var p models.JobFailedPayload
	err := m.Event.DataAs(&p)
	return p, err
}

type submission struct {
	ctx     context.Context
	job     Job
	replies chan Message
}

// Worker processes submitted jobs one at a time, in submission order.
type Worker struct {
	toolkit *services.Toolkit

	mu     sync.RWMutex
	closed bool
	jobs   chan submission
	done   chan struct{}

	// current is only touched by the worker goroutine.
	current *submission
}

// Start launches a worker with its own pipeline.
func Start(config services.ToolkitConfig) *Worker {
	p := pipeline.New()
	w := &Worker{
		toolkit: services.NewToolkit(p, config),
		jobs:    make(chan submission),
		done:    make(chan struct{}),
	}
	p.Subscribe(w.forwardProgress)
	go w.loop()
	slog.Info("Worker started.")
	return w
}

// Submit queues job and returns the channel its messages arrive on. The
// channel receives zero or more progress messages followed by exactly one
// success or failure message, and is then closed. Progress messages are
// dropped when the caller falls behind. The final message waits for the
// caller until ctx is done; a caller that stops reading must cancel ctx or
// the worker stalls.
func (w *Worker) Submit(ctx context.Context, job Job) (<-chan Message, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	s := submission{ctx: ctx, job: job, replies: make(chan Message, 16)}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil, ErrClosed
	}
	select {
	case w.jobs <- s:
		return s.replies, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting jobs and waits for the running job to finish.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Worker) loop() {
	defer close(w.done)
	for s := range w.jobs {
		w.current = &s
		w.run(s)
		w.current = nil
		close(s.replies)
	}
	slog.Info("Worker stopped.")
}

func (w *Worker) run(s submission) {
	logCtx := slog.With("jobId", s.job.ID, "kind", s.job.Kind)
	logCtx.Info("Job received.")

	outputs, err := w.execute(s.ctx, s.job)
	if err != nil {
		logCtx.Error("Job failed.", "error", err)
		w.deliver(s, w.message(s.job.ID, EventFailed, models.JobFailedPayload{JobID: s.job.ID, Reason: err.Error()}, nil))
		return
	}
	logCtx.Info("Job succeeded.", "outputs", len(outputs))
	w.deliver(s, w.message(s.job.ID, EventSucceeded, models.JobSucceededPayload{JobID: s.job.ID, Outputs: models.Summarize(outputs)}, outputs))
}

// deliver sends the final message of s, giving up once the caller's context
// is done.
func (w *Worker) deliver(s submission, msg Message) {
	select {
	case s.replies <- msg:
		return
	default:
	}
	select {
	case s.replies <- msg:
	case <-s.ctx.Done():
		slog.Warn("Caller stopped listening; final message dropped.", "jobId", s.job.ID, "type", msg.Event.Type())
	}
}

func (w *Worker) execute(ctx context.Context, job Job) ([]models.Output, error) {
	if job.Kind != KindMerge && len(job.Files) == 0 {
		return nil, fmt.Errorf("%s job has no input file", job.Kind)
	}
	switch job.Kind {
	case KindMerge:
		out, err := w.toolkit.Merge(ctx, job.Files)
		if err != nil {
			return nil, err
		}
		return []models.Output{out}, nil
	case KindSplit:
		return w.toolkit.Split(ctx, job.Files[0], job.Ranges)
	case KindSplitPages:
		return w.toolkit.SplitPages(ctx, job.Files[0])
	case KindCompress:
		out, err := w.toolkit.Compress(ctx, job.Files[0])
		if err != nil {
			return nil, err
		}
		return []models.Output{out}, nil
	}
	return nil, fmt.Errorf("unsupported job kind %q", job.Kind)
}

func (w *Worker) forwardProgress(state models.ProcessingState) {
	s := w.current
	if s == nil || !state.IsProcessing() {
		return
	}
	msg := w.message(s.job.ID, EventProgress, models.JobProgressPayload{
		JobID:    s.job.ID,
		Progress: state.Progress,
		Message:  state.Message,
	}, nil)
	select {
	case s.replies <- msg:
	default:
	}
}

func (w *Worker) message(jobID, eventType string, payload any, outputs []models.Output) Message {
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(eventSource)
	event.SetType(eventType)
	event.SetSubject(jobID)
	event.SetTime(time.Now())
	if err := event.SetData(cloudevents.ApplicationJSON, payload); err != nil {
		slog.Error("Failed to encode event data", "type", eventType, "error", err)
	}
	return Message{Event: event, Outputs: outputs}
}
