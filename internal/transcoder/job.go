package transcoder

import (
	"context"
	"sync"
)

// Status is the lifecycle state of an export job.
type Status string

// Export job states.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Event is delivered on a job's event channel. Progress events have Done set
// to false; the last event on the channel is terminal.
type Event struct {
	Status   Status
	Progress float64
	Done     bool
	Location string // output file, completed jobs only
	Token    string // release token, completed jobs only
	Err      error
}

// eventBuffer is the channel capacity. Only the job goroutine sends, and
// progress events are dropped when fewer than one free slot would remain, so
// the terminal event never blocks.
const eventBuffer = 32

// Job is one running or finished video export.
type Job struct {
	AssetID    string
	OutputPath string
	Token      string

	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	status   Status
	progress float64
	err      error
}

func newJob(assetID, outputPath, token string, cancel context.CancelFunc) *Job {
	return &Job{
		AssetID:    assetID,
		OutputPath: outputPath,
		Token:      token,
		events:     make(chan Event, eventBuffer),
		cancel:     cancel,
		done:       make(chan struct{}),
		status:     StatusRunning,
	}
}

// Events returns the channel of progress and terminal events. It is closed
// after the terminal event.
func (j *Job) Events() <-chan Event {
	return j.events
}

// Status returns the current state and progress.
func (j *Job) Status() (Status, float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status, j.progress
}

// Err returns the failure of a finished job.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Cancel stops a running export. The job reports StatusCancelled.
func (j *Job) Cancel() {
	j.cancel()
}

// Done is closed when the job has finished.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

func (j *Job) reportProgress(p float64) {
	j.mu.Lock()
	j.progress = p
	j.mu.Unlock()

	if len(j.events) >= cap(j.events)-1 {
		return
	}
	j.events <- Event{Status: StatusRunning, Progress: p}
}

func (j *Job) finish(ev Event) {
	ev.Done = true
	j.mu.Lock()
	j.status = ev.Status
	j.err = ev.Err
	if ev.Status == StatusCompleted {
		j.progress = 1
	}
	ev.Progress = j.progress
	j.mu.Unlock()

	j.events <- ev
	close(j.events)
	close(j.done)
}
