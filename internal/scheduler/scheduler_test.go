package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// gatedAnalyzer completes one analysis per Release call, so tests control
// exactly how far a task progresses before acting on it.
type gatedAnalyzer struct {
	gate chan struct{}

	mu       sync.Mutex
	analyzed []string
	failWith map[string]error
}

func newGatedAnalyzer() *gatedAnalyzer {
	return &gatedAnalyzer{gate: make(chan struct{})}
}

func (a *gatedAnalyzer) Release() { a.gate <- struct{}{} }

func (a *gatedAnalyzer) Analyze(ctx context.Context, symbol string, ruleIDs []string) (*models.AnalysisReport, error) {
	select {
	case <-a.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	a.mu.Lock()
	a.analyzed = append(a.analyzed, symbol)
	failure := a.failWith[symbol]
	a.mu.Unlock()

	if failure != nil {
		return nil, failure
	}
	return &models.AnalysisReport{
		Symbol:             symbol,
		ComprehensiveScore: 70,
		Recommendation:     models.RecommendBuy,
		Price:              models.PriceInfo{CurrentPrice: 10},
	}, nil
}

// instantAnalyzer completes immediately.
type instantAnalyzer struct {
	err error
}

func (a *instantAnalyzer) Analyze(ctx context.Context, symbol string, ruleIDs []string) (*models.AnalysisReport, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &models.AnalysisReport{
		Symbol:             symbol,
		ComprehensiveScore: 70,
		Recommendation:     models.RecommendBuy,
	}, nil
}

// failingStore always rejects saves.
type failingStore struct{}

func (failingStore) Save(ctx context.Context, date string, records []*models.StockRecord) error {
	return errors.New("store offline")
}

func (failingStore) List(ctx context.Context, date string, limit int) ([]*models.StockRecord, error) {
	return nil, errors.New("store offline")
}

func waitForStatus(t *testing.T, s *Scheduler, id string, want TaskStatus) *Task {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		task, err := s.Get(id)
		require.NoError(t, err)
		if task.Status == want {
			return task
		}
		select {
		case <-deadline:
			t.Fatalf("task %s never reached %s, stuck at %s", id, want, task.Status)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func waitForProgress(t *testing.T, s *Scheduler, id string, want int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		task, err := s.Get(id)
		require.NoError(t, err)
		if task.Progress >= want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("task %s never reached progress %d", id, want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestScheduler_CompletesBatch(t *testing.T) {
	s := New(&instantAnalyzer{})
	defer s.Shutdown(context.Background())

	task, err := s.Submit([]string{"600519", "000001"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, task.Total)

	done := waitForStatus(t, s, task.ID, StatusCompleted)
	assert.Equal(t, 2, done.Progress)
	assert.Len(t, done.Reports, 2)
	assert.Empty(t, done.Failures)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.FinishedAt)
}

func TestScheduler_CancelAfterFirstItemKeepsPartialResults(t *testing.T) {
	analyzer := newGatedAnalyzer()
	s := New(analyzer)
	defer s.Shutdown(context.Background())

	task, err := s.Submit([]string{"A", "B", "C"}, nil)
	require.NoError(t, err)

	// Let exactly the first instrument finish, then cancel.
	analyzer.Release()
	waitForProgress(t, s, task.ID, 1)
	require.NoError(t, s.Cancel(task.ID))

	done := waitForStatus(t, s, task.ID, StatusCancelled)
	assert.Equal(t, 1, done.Progress)
	assert.Equal(t, 3, done.Total)
	require.Len(t, done.Reports, 1)
	assert.Equal(t, "A", done.Reports[0].Symbol)
}

func TestScheduler_TerminalTaskCannotBeCancelled(t *testing.T) {
	s := New(&instantAnalyzer{})
	defer s.Shutdown(context.Background())

	task, err := s.Submit([]string{"600519"}, nil)
	require.NoError(t, err)
	waitForStatus(t, s, task.ID, StatusCompleted)

	err = s.Cancel(task.ID)
	assert.ErrorIs(t, err, models.ErrTaskTerminal)

	after, err := s.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, after.Status)
}

func TestScheduler_AllItemsFailingFailsTask(t *testing.T) {
	s := New(&instantAnalyzer{err: errors.New("feed down")})
	defer s.Shutdown(context.Background())

	task, err := s.Submit([]string{"A", "B"}, nil)
	require.NoError(t, err)

	done := waitForStatus(t, s, task.ID, StatusFailed)
	assert.Len(t, done.Failures, 2)
	assert.Empty(t, done.Reports)
	assert.NotEmpty(t, done.Error)
}

func TestScheduler_PartialFailuresStillComplete(t *testing.T) {
	analyzer := newGatedAnalyzer()
	analyzer.failWith = map[string]error{"B": errors.New("bad symbol")}
	s := New(analyzer)
	defer s.Shutdown(context.Background())

	task, err := s.Submit([]string{"A", "B", "C"}, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		analyzer.Release()
	}

	done := waitForStatus(t, s, task.ID, StatusCompleted)
	assert.Equal(t, 3, done.Progress)
	assert.Len(t, done.Reports, 2)
	require.Len(t, done.Failures, 1)
	assert.Equal(t, "B", done.Failures[0].Symbol)
}

func TestScheduler_PersistenceFailureDoesNotFailTask(t *testing.T) {
	s := New(&instantAnalyzer{}, WithRecommendationStore(failingStore{}))
	defer s.Shutdown(context.Background())

	task, err := s.Submit([]string{"600519"}, nil)
	require.NoError(t, err)

	done := waitForStatus(t, s, task.ID, StatusCompleted)
	assert.Equal(t, StatusCompleted, done.Status)
}

func TestScheduler_GetReturnsSnapshot(t *testing.T) {
	s := New(&instantAnalyzer{})
	defer s.Shutdown(context.Background())

	task, err := s.Submit([]string{"600519"}, nil)
	require.NoError(t, err)
	done := waitForStatus(t, s, task.ID, StatusCompleted)

	// Mutating a snapshot must not affect the scheduler's copy.
	done.Status = StatusPending
	done.Reports = nil

	fresh, err := s.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, fresh.Status)
	assert.Len(t, fresh.Reports, 1)
}

func TestScheduler_UnknownTask(t *testing.T) {
	s := New(&instantAnalyzer{})
	defer s.Shutdown(context.Background())

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, models.ErrTaskNotFound)

	err = s.Cancel("nope")
	assert.ErrorIs(t, err, models.ErrTaskNotFound)
}

func TestScheduler_RejectsEmptySubmission(t *testing.T) {
	s := New(&instantAnalyzer{})
	defer s.Shutdown(context.Background())

	_, err := s.Submit([]string{"  ", ""}, nil)
	assert.ErrorIs(t, err, models.ErrInvalidSymbol)
}

func TestScheduler_ShutdownStopsRunningTasks(t *testing.T) {
	analyzer := newGatedAnalyzer()
	s := New(analyzer)

	task, err := s.Submit([]string{"A", "B"}, nil)
	require.NoError(t, err)
	analyzer.Release()
	waitForProgress(t, s, task.ID, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	done, err := s.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, done.Status)

	_, err = s.Submit([]string{"C"}, nil)
	assert.Error(t, err)
}

func TestScheduler_ConcurrentTasksAreIsolated(t *testing.T) {
	s := New(&instantAnalyzer{})
	defer s.Shutdown(context.Background())

	first, err := s.Submit([]string{"A"}, nil)
	require.NoError(t, err)
	second, err := s.Submit([]string{"B", "C"}, nil)
	require.NoError(t, err)

	doneFirst := waitForStatus(t, s, first.ID, StatusCompleted)
	doneSecond := waitForStatus(t, s, second.ID, StatusCompleted)

	assert.Equal(t, 1, doneFirst.Total)
	assert.Equal(t, 2, doneSecond.Total)
	assert.NotEqual(t, doneFirst.ID, doneSecond.ID)
}
