// Package e2e contains component-level E2E tests for the advisor pipeline.
//
// These tests wire the real components together without the HTTP layer:
// watchlist -> scheduler -> analyzer -> recommendation store -> screener.
// For full system E2E tests via the API, see internal/api/handlers_test.go.
package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/stock-advisor/internal/analyzer"
	"github.com/mohamedkhairy/stock-advisor/internal/models"
	"github.com/mohamedkhairy/stock-advisor/internal/quote"
	"github.com/mohamedkhairy/stock-advisor/internal/scheduler"
	"github.com/mohamedkhairy/stock-advisor/internal/screener"
	"github.com/mohamedkhairy/stock-advisor/internal/store"
	"github.com/mohamedkhairy/stock-advisor/internal/watchlist"
)

type pipeline struct {
	watchlists *watchlist.Manager
	scheduler  *scheduler.Scheduler
	screener   *screener.Screener
	recommends *store.MemoryRecommendationStore
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	registry := analyzer.NewRegistry()
	require.NoError(t, analyzer.RegisterDefaults(registry))
	registry.Freeze()

	provider := quote.NewCachingProvider(quote.NewSyntheticProvider(), time.Second)
	engine, err := analyzer.NewEngine(registry, provider, analyzer.DefaultLadder())
	require.NoError(t, err)

	recommends := store.NewMemoryRecommendationStore()
	sched := scheduler.New(engine, scheduler.WithRecommendationStore(recommends))
	t.Cleanup(func() { sched.Shutdown(context.Background()) })

	return &pipeline{
		watchlists: watchlist.NewManager(store.NewMemoryWatchlistStore()),
		scheduler:  sched,
		screener:   screener.New(nil),
		recommends: recommends,
	}
}

func waitForTerminal(t *testing.T, sched *scheduler.Scheduler, id string) *scheduler.Task {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		task, err := sched.Get(id)
		require.NoError(t, err)
		if task.Status.Terminal() {
			return task
		}
		select {
		case <-deadline:
			t.Fatalf("task %s never finished, status %s", id, task.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// TestAdvisorE2E_WatchlistToScreen exercises the complete flow: instruments
// collected in a watchlist are analyzed as a batch, the resulting reports are
// persisted as screening candidates for the day, and the screener filters
// that candidate pool.
func TestAdvisorE2E_WatchlistToScreen(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	// Step 1: build a watchlist group.
	group, err := p.watchlists.CreateGroup(ctx, "dragons")
	require.NoError(t, err)
	for _, symbol := range []string{"600519", "000001", "AAPL"} {
		_, err = p.watchlists.AddStock(ctx, group.ID, symbol, "", "")
		require.NoError(t, err)
	}

	symbols, err := p.watchlists.Symbols(ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"600519", "000001", "AAPL"}, symbols)

	// Step 2: run the batch analysis.
	task, err := p.scheduler.Submit(symbols, nil)
	require.NoError(t, err)

	done := waitForTerminal(t, p.scheduler, task.ID)
	require.Equal(t, scheduler.StatusCompleted, done.Status)
	assert.Equal(t, 3, done.Progress)
	require.Len(t, done.Reports, 3)
	for _, report := range done.Reports {
		assert.NotEmpty(t, report.Recommendation)
		assert.False(t, report.Degraded())
		assert.InDelta(t, 50, report.ComprehensiveScore, 50)
	}

	// Step 3: the reports became today's candidate pool.
	date := time.Now().Format("2006-01-02")
	candidates, err := p.recommends.List(ctx, date, 0)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	// Step 4: screen the pool. An empty condition matches everything.
	result := p.screener.Screen(candidates, nil, screener.Options{})
	require.Equal(t, 3, result.Summary.Count)
	assert.Equal(t, []string{"a_stock", "us_stock"}, result.Summary.Markets)
	assert.LessOrEqual(t, result.Summary.PriceMin, result.Summary.PriceMax)

	// Custom rules against the scored pool narrow it further.
	narrowed := p.screener.Screen(candidates, &models.Condition{
		Markets: []string{"us_stock"},
		CustomRules: []models.CustomRule{
			{Field: "total_score", Operator: models.OpGTE, Value: 0.0},
		},
	}, screener.Options{SortByScore: true})
	require.Len(t, narrowed.Matched, 1)
	assert.Equal(t, "AAPL", narrowed.Matched[0].Symbol)
}

// TestAdvisorE2E_CancelRetainsPartialWork verifies that cancelling a batch
// mid-flight keeps whatever reports were already produced.
func TestAdvisorE2E_CancelRetainsPartialWork(t *testing.T) {
	p := newPipeline(t)

	symbols := make([]string, 40)
	for i := range symbols {
		symbols[i] = "600519"
	}
	task, err := p.scheduler.Submit(symbols, nil)
	require.NoError(t, err)

	// Cancellation races the worker; either it lands before the batch
	// finishes (cancelled, partial results) or the batch wins (completed).
	err = p.scheduler.Cancel(task.ID)
	done := waitForTerminal(t, p.scheduler, task.ID)
	if err != nil {
		require.ErrorIs(t, err, models.ErrTaskTerminal)
		require.Equal(t, scheduler.StatusCompleted, done.Status)
		return
	}

	switch done.Status {
	case scheduler.StatusCancelled:
		assert.Less(t, done.Progress, done.Total)
		assert.Len(t, done.Reports, done.Progress)
	case scheduler.StatusCompleted:
		assert.Equal(t, done.Total, done.Progress)
	default:
		t.Fatalf("unexpected terminal status %s", done.Status)
	}
}
