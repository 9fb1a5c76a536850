package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/researchcore/pipeline/internal/config"
	"github.com/researchcore/pipeline/internal/errs"
	"github.com/researchcore/pipeline/internal/eventbus"
	"github.com/researchcore/pipeline/internal/pipeline"
	"github.com/researchcore/pipeline/internal/research"
	safe "github.com/researchcore/pipeline/pkg/safe"
)

// ErrBackpressure is returned by Submit when the configured overload
// ceiling has been reached. It is not one of the taxonomy in errs.Kind:
// it is a submission-time rejection, not a job's terminal error.
var ErrBackpressure = errors.New("jobs: too many jobs queued")

// ErrNotFound is returned by Status/Subscribe/Cancel for an unknown job
// ID.
var ErrNotFound = errors.New("jobs: job not found")

// Manager accepts research requests, drives their pipelines as
// independent concurrent tasks, and exposes status and event
// subscription. It owns the event bus.
type Manager struct {
	cfg    *config.Config
	bus    *eventbus.Bus
	engine *pipeline.Engine
	pool   *workerpool.WorkerPool
	gc     *cron.Cron

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewManager wires a Manager around a configured pipeline.Engine. The
// worker pool bounds how many pipeline tasks run concurrently
// (MaxConcurrentJobs); the cron schedule drives retention GC of terminal
// jobs past their retention window, grounded in the same cron-driven
// trigger pattern used elsewhere for periodic work.
func NewManager(cfg *config.Config, engine *pipeline.Engine) *Manager {
	m := &Manager{
		cfg:    cfg,
		bus:    eventbus.New(),
		engine: engine,
		pool:   workerpool.New(cfg.MaxConcurrentJobs),
		gc:     cron.New(),
		jobs:   make(map[string]*Job),
	}

	spec := fmt.Sprintf("@every %s", cfg.RetentionSweep.String())
	_, _ = m.gc.AddFunc(spec, m.sweepTerminalJobs)
	m.gc.Start()

	return m
}

// Submit validates the request, allocates a job ID, registers the job as
// pending, and dispatches its pipeline execution onto the worker pool.
// It returns immediately; Submit never fails on resource exhaustion
// alone except via the backpressure ceiling.
func (m *Manager) Submit(req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	m.mu.RLock()
	queued := m.pool.WaitingQueueSize()
	m.mu.RUnlock()
	if queued >= m.cfg.MaxQueuedJobs {
		return "", ErrBackpressure
	}

	id := uuid.NewString()
	job := newJob(id, req)

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	m.pool.Submit(func() {
		safe.WithRecover(func() {
			m.runPipeline(job)
		}, func(err error) {
			job.updateStatus(research.StatusFailed, job.Snapshot().Progress, "internal error", errs.Wrap(errs.Internal, "pipeline panicked", err), nil)
			slog.Error("pipeline panic", slog.String("job_id", id), slog.String("err", err.Error()))
		})()
	})

	return id, nil
}

func (m *Manager) runPipeline(job *Job) {
	ctx, cancel := context.WithCancel(context.Background())
	job.setCancel(cancel)
	defer cancel()

	reporter := newJobReporter(job, m.bus)
	reporter.Status(research.StatusProcessing, 0, fmt.Sprintf("Starting research for %s", job.request.Company), nil, nil)

	state := research.New(job.request.Company, job.request.CompanyURL, job.request.Industry, job.request.HQLocation)

	_, err := m.engine.Run(ctx, state, reporter)
	if err != nil {
		kind := errs.KindOf(err)
		reporter.Status(research.StatusFailed, job.Snapshot().Progress, "research failed", err, nil)
		slog.Error("pipeline failed", slog.String("job_id", job.ID()), slog.String("kind", string(kind)), slog.String("err", err.Error()))
	}
}

// Status returns an immutable snapshot of the job, or ErrNotFound.
func (m *Manager) Status(jobID string) (Snapshot, error) {
	m.mu.RLock()
	job, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return job.Snapshot(), nil
}

// Subscribe registers an event subscriber for jobID. The first event the
// subscriber observes is a synthetic status_update reflecting the job's
// state at registration time (handled by the event bus's catch-up
// semantics).
func (m *Manager) Subscribe(jobID string) (*eventbus.Subscription, error) {
	m.mu.RLock()
	_, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return eventbus.Subscribe(m.bus, jobID, uuid.NewString(), eventbus.DefaultCapacity), nil
}

// Cancel signals cancellation to the job's pipeline task. The pipeline
// reacts by transitioning to failed with reason cancelled (see
// errs.Cancelled); Cancel itself only requests cancellation and returns
// once the signal has been sent, not once the job has reached a
// terminal state.
func (m *Manager) Cancel(jobID string) error {
	m.mu.RLock()
	job, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if cancel := job.cancelFunc(); cancel != nil {
		cancel()
	}
	return nil
}

// sweepTerminalJobs evicts jobs that reached a terminal state more than
// JobRetention ago. It never touches a job mid-flight: IsTerminal() is
// checked before TerminalAge(), and both are read under the job's own
// lock.
func (m *Manager) sweepTerminalJobs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, job := range m.jobs {
		if !job.IsTerminal() {
			continue
		}
		if job.TerminalAge() < m.cfg.JobRetention {
			continue
		}
		delete(m.jobs, id)
		m.bus.Close(id)
	}
}

// Close stops the retention scheduler and drains the worker pool,
// waiting for any in-flight pipeline tasks to finish. Intended for
// graceful process shutdown.
func (m *Manager) Close() {
	m.gc.Stop()
	m.pool.StopWait()
}
