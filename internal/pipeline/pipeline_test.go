package pipeline

import (
	"github.com/researchcore/pipeline/internal/research"
)

// fakeReporter records every call made to it, for assertions in tests
// across this package.
type fakeReporter struct {
	statuses []research.Status
	progress []int
	events   []research.Event
	logs     []string
}

func (f *fakeReporter) Status(status research.Status, progress int, message string, err error, result *research.Result) {
	f.statuses = append(f.statuses, status)
	f.progress = append(f.progress, progress)
}

func (f *fakeReporter) Event(e research.Event) {
	f.events = append(f.events, e)
}

func (f *fakeReporter) Log(message string) {
	f.logs = append(f.logs, message)
}

func newState() *research.State {
	return research.New("Acme Corp", "https://acme.example", "Widgets", "Springfield")
}

var _ Reporter = (*fakeReporter)(nil)
