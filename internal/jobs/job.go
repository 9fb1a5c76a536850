// Package jobs implements the job control plane: request validation, job
// lifecycle tracking, and the manager that launches and supervises
// pipeline executions.
package jobs

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/researchcore/pipeline/internal/errs"
	"github.com/researchcore/pipeline/internal/research"
)

// Request is the caller-supplied research request.
type Request struct {
	Company    string
	CompanyURL string
	Industry   string
	HQLocation string
}

// Validate enforces the one required field; anything else is optional.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Company) == "" {
		return errs.New(errs.InputInvalid, "company is required")
	}
	return nil
}

// Snapshot is an immutable view of a Job at a point in time, safe to hand
// to a Status() caller or embed in a synthetic status_update event.
type Snapshot struct {
	ID        string
	Request   Request
	Status    research.Status
	Progress  int
	Message   string
	Result    *research.Result
	Err       error
	Log       []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Job tracks one research request's lifecycle: pending -> processing ->
// {completed | failed}. All field access goes through the exported
// methods, which serialize reads and writes and enforce the lifecycle
// invariants from the data model (monotonic progress, sticky terminal
// state, terminal-at-most-once).
type Job struct {
	mu      sync.RWMutex
	id      string
	request Request

	status   research.Status
	progress int
	message  string
	result   *research.Result
	err      error
	log      []string

	createdAt time.Time
	updatedAt time.Time
	terminal  bool

	cancel context.CancelFunc
}

func newJob(id string, req Request) *Job {
	now := time.Now()
	return &Job{
		id:        id,
		request:   req,
		status:    research.StatusPending,
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the job's opaque identifier.
func (j *Job) ID() string { return j.id }

// setCancel stores the cancellation function for the running pipeline
// task, so Cancel() can later invoke it.
func (j *Job) setCancel(cancel context.CancelFunc) {
	j.mu.Lock()
	j.cancel = cancel
	j.mu.Unlock()
}

// cancelFunc returns the stored cancel function, or nil if the pipeline
// task has not started yet.
func (j *Job) cancelFunc() context.CancelFunc {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.cancel
}

// updateStatus applies a status transition, enforcing: progress is
// monotonic non-decreasing until a terminal state, and a job transitions
// to a terminal state at most once (subsequent terminal updates are
// ignored).
func (j *Job) updateStatus(status research.Status, progress int, message string, err error, result *research.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.terminal {
		return
	}

	if progress > j.progress {
		j.progress = progress
	}
	j.status = status
	if message != "" {
		j.message = message
	}
	if err != nil {
		j.err = err
	}
	if result != nil {
		j.result = result
	}
	j.updatedAt = time.Now()

	if status == research.StatusCompleted || status == research.StatusFailed {
		j.terminal = true
	}
}

// appendLog appends a debug-log line. The log is append-only and is
// retained even for terminal jobs, for diagnosis.
func (j *Job) appendLog(message string) {
	j.mu.Lock()
	j.log = append(j.log, message)
	j.updatedAt = time.Now()
	j.mu.Unlock()
}

// Snapshot returns an immutable copy of the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Snapshot{
		ID:        j.id,
		Request:   j.request,
		Status:    j.status,
		Progress:  j.progress,
		Message:   j.message,
		Result:    j.result,
		Err:       j.err,
		Log:       append([]string{}, j.log...),
		CreatedAt: j.createdAt,
		UpdatedAt: j.updatedAt,
	}
}

// IsTerminal reports whether the job has reached completed or failed.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.terminal
}

// TerminalAge returns how long it has been since the job last updated,
// for the retention sweep to decide eviction eligibility. Only
// meaningful once IsTerminal() is true.
func (j *Job) TerminalAge() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return time.Since(j.updatedAt)
}
