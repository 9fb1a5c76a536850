package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchcore/pipeline/internal/config"
	"github.com/researchcore/pipeline/internal/pipeline"
	"github.com/researchcore/pipeline/internal/research"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.MaxConcurrentJobs = 2
	cfg.MaxQueuedJobs = 1
	cfg.RetentionSweep = time.Hour
	cfg.JobRetention = time.Hour
	return cfg
}

func succeedingEngine(report string) *pipeline.Engine {
	return pipeline.NewEngine(
		pipeline.NewStageFunc("grounding", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
			return research.Delta{}, nil
		}),
		[]pipeline.Stage{
			pipeline.NewStageFunc("financial_analyst", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
				return research.Delta{}, nil
			}),
		},
		pipeline.NewStageFunc("collector", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
			return research.Delta{}, nil
		}),
		pipeline.NewStageFunc("curator", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
			return research.Delta{}, nil
		}),
		pipeline.NewStageFunc("enricher", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
			return research.Delta{}, nil
		}),
		pipeline.NewStageFunc("briefing", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
			return research.Delta{}, nil
		}),
		pipeline.NewStageFunc("editor", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
			return research.Delta{Report: &report}, nil
		}),
		pipeline.NewOutputStage(),
	)
}

func waitForTerminal(t *testing.T, m *Manager, jobID string) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := m.Status(jobID)
		require.NoError(t, err)
		if snap.Status == research.StatusCompleted || snap.Status == research.StatusFailed {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal state in time")
	return Snapshot{}
}

func TestManagerSubmitRunsJobToCompletion(t *testing.T) {
	m := NewManager(testConfig(), succeedingEngine("final report"))
	defer m.Close()

	id, err := m.Submit(Request{Company: "Acme"})
	require.NoError(t, err)

	snap := waitForTerminal(t, m, id)
	assert.Equal(t, research.StatusCompleted, snap.Status)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "final report", snap.Result.Report)
}

func TestManagerSubmitRejectsInvalidRequest(t *testing.T) {
	m := NewManager(testConfig(), succeedingEngine("unused"))
	defer m.Close()

	_, err := m.Submit(Request{})
	assert.Error(t, err)
}

func TestManagerStatusReturnsNotFoundForUnknownJob(t *testing.T) {
	m := NewManager(testConfig(), succeedingEngine("unused"))
	defer m.Close()

	_, err := m.Status("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerSubscribeDeliversEvents(t *testing.T) {
	m := NewManager(testConfig(), succeedingEngine("report text"))
	defer m.Close()

	id, err := m.Submit(Request{Company: "Acme"})
	require.NoError(t, err)

	sub, err := m.Subscribe(id)
	require.NoError(t, err)

	sawCompletion := false
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !sawCompletion {
		select {
		case e := <-sub.Events():
			if e.Type == research.TypeStatusUpdate && e.Data.Status == research.StatusCompleted {
				sawCompletion = true
			}
		case <-time.After(50 * time.Millisecond):
		}
	}
	assert.True(t, sawCompletion, "expected a completed status_update event")
}

func TestManagerCancelStopsAJob(t *testing.T) {
	blocking := pipeline.NewEngine(
		pipeline.NewStageFunc("grounding", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
			return research.Delta{}, nil
		}),
		[]pipeline.Stage{
			pipeline.NewStageFunc("financial_analyst", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
				<-ctx.Done()
				return research.Delta{}, ctx.Err()
			}),
		},
		pipeline.NewStageFunc("collector", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
			return research.Delta{}, nil
		}),
		pipeline.NewStageFunc("curator", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
			return research.Delta{}, nil
		}),
		pipeline.NewStageFunc("enricher", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
			return research.Delta{}, nil
		}),
		pipeline.NewStageFunc("briefing", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
			return research.Delta{}, nil
		}),
		pipeline.NewStageFunc("editor", func(ctx context.Context, s *research.State, r pipeline.Reporter) (research.Delta, error) {
			return research.Delta{}, nil
		}),
		pipeline.NewOutputStage(),
	)

	m := NewManager(testConfig(), blocking)
	defer m.Close()

	id, err := m.Submit(Request{Company: "Acme"})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, m.Cancel(id))

	snap := waitForTerminal(t, m, id)
	assert.Equal(t, research.StatusFailed, snap.Status)
}
