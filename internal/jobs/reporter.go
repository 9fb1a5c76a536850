package jobs

import (
	"github.com/researchcore/pipeline/internal/eventbus"
	"github.com/researchcore/pipeline/internal/research"
)

// jobReporter is the pipeline engine's window onto a single job: status
// transitions update the Job's tracked fields and are published as
// status_update events; other event types pass straight through to the
// bus. It implements pipeline.Reporter structurally, so the pipeline
// package never needs to import jobs.
type jobReporter struct {
	job *Job
	bus *eventbus.Bus
}

func newJobReporter(job *Job, bus *eventbus.Bus) *jobReporter {
	return &jobReporter{job: job, bus: bus}
}

// Status applies a lifecycle transition to the job and publishes the
// corresponding status_update event.
func (r *jobReporter) Status(status research.Status, progress int, message string, err error, result *research.Result) {
	r.job.updateStatus(status, progress, message, err, result)
	r.bus.Publish(r.job.ID(), research.StatusUpdate(status, progress, message, err, result))
}

// Event publishes a non-status event (query_generating, document_kept,
// report_chunk, etc.) to the job's subscribers without touching the
// job's tracked status fields.
func (r *jobReporter) Event(e research.Event) {
	r.bus.Publish(r.job.ID(), e)
}

// Log appends a line to the job's debug log without publishing anything.
func (r *jobReporter) Log(message string) {
	r.job.appendLog(message)
}
