package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
	"github.com/mohamedkhairy/stock-advisor/internal/store"
	"github.com/mohamedkhairy/stock-advisor/pkg/logger"
)

// defaultHistoryLimit bounds how many finished tasks are kept for polling.
const defaultHistoryLimit = 100

// Analyzer is the single operation the scheduler needs from the analysis
// engine.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string, ruleIDs []string) (*models.AnalysisReport, error)
}

// Scheduler runs batch analysis tasks asynchronously, one worker goroutine
// per task. It is an injected dependency, not process-global state, so tests
// can run isolated instances.
type Scheduler struct {
	analyzer     Analyzer
	recommender  store.RecommendationStore
	historyLimit int
	now          func() time.Time

	mu      sync.Mutex
	tasks   map[string]*taskState
	order   []string
	wg      sync.WaitGroup
	closed  bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

type taskState struct {
	task   *Task
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRecommendationStore makes completed tasks persist their reports as
// screening candidates for the task's trading date. Persistence failures are
// logged but never change task status.
func WithRecommendationStore(s store.RecommendationStore) Option {
	return func(sch *Scheduler) { sch.recommender = s }
}

// WithHistoryLimit bounds how many finished tasks remain queryable.
func WithHistoryLimit(n int) Option {
	return func(sch *Scheduler) {
		if n > 0 {
			sch.historyLimit = n
		}
	}
}

// New creates a scheduler running tasks against the given analyzer.
func New(analyzer Analyzer, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	sch := &Scheduler{
		analyzer:     analyzer,
		historyLimit: defaultHistoryLimit,
		now:          time.Now,
		tasks:        make(map[string]*taskState),
		baseCtx:      ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(sch)
	}
	return sch
}

// Submit creates a task for the given symbols and starts its worker. The
// returned snapshot reflects the task at submission time.
func (s *Scheduler) Submit(symbols []string, ruleIDs []string) (*Task, error) {
	cleaned := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if trimmed := strings.TrimSpace(symbol); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("submit task: %w", models.ErrInvalidSymbol)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("submit task: scheduler is shut down")
	}

	task := &Task{
		ID:        uuid.NewString(),
		Symbols:   cleaned,
		RuleIDs:   append([]string(nil), ruleIDs...),
		Status:    StatusPending,
		Total:     len(cleaned),
		CreatedAt: s.now(),
	}

	taskCtx, taskCancel := context.WithCancel(s.baseCtx)
	state := &taskState{task: task, cancel: taskCancel}
	s.tasks[task.ID] = state
	s.order = append(s.order, task.ID)
	s.evictLocked()

	s.wg.Add(1)
	go s.run(taskCtx, state)

	logger.TasksTotal.WithLabelValues(string(StatusPending)).Inc()
	logger.Info("Task submitted",
		logger.String("task_id", task.ID),
		logger.Int("symbols", len(cleaned)),
	)
	return task.snapshot(), nil
}

// Get returns a point-in-time snapshot of the task.
func (s *Scheduler) Get(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, exists := s.tasks[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", models.ErrTaskNotFound, id)
	}
	return state.task.snapshot(), nil
}

// List returns snapshots of all known tasks, oldest first.
func (s *Scheduler) List() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id].task.snapshot())
	}
	return out
}

// Cancel requests cooperative cancellation of a task. Cancelling a terminal
// task returns ErrTaskTerminal; the task keeps its final state. The worker
// observes the cancellation between instruments, so reports already produced
// are retained.
func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, exists := s.tasks[id]
	if !exists {
		return fmt.Errorf("%w: %s", models.ErrTaskNotFound, id)
	}
	if state.task.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", models.ErrTaskTerminal, id, state.task.Status)
	}
	state.cancel()
	return nil
}

// Shutdown cancels every running task and waits for workers to exit or the
// context to expire.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the per-task worker. Cancellation is checked between instruments;
// a cancelled task keeps the reports produced so far.
func (s *Scheduler) run(ctx context.Context, state *taskState) {
	defer s.wg.Done()
	defer state.cancel()

	start := s.now()
	s.update(state, func(t *Task) {
		t.Status = StatusRunning
		t.StartedAt = &start
		t.Message = "analysis started"
	})

	task := state.task
	for _, symbol := range task.Symbols {
		if ctx.Err() != nil {
			s.finish(state, StatusCancelled, "cancelled by request")
			return
		}

		s.update(state, func(t *Task) {
			t.CurrentItem = symbol
			t.Message = fmt.Sprintf("analyzing %s", symbol)
		})

		report, err := s.analyzer.Analyze(ctx, symbol, task.RuleIDs)
		if err != nil {
			if ctx.Err() != nil {
				s.finish(state, StatusCancelled, "cancelled by request")
				return
			}
			s.update(state, func(t *Task) {
				t.Failures = append(t.Failures, Failure{Symbol: symbol, Reason: err.Error()})
				t.Progress++
			})
			logger.Warn("Task item failed",
				logger.String("task_id", task.ID),
				logger.String("symbol", symbol),
				logger.ErrorField(err),
			)
			continue
		}

		s.update(state, func(t *Task) {
			t.Reports = append(t.Reports, report)
			t.Progress++
		})
	}

	if len(task.Reports) == 0 && len(task.Failures) == task.Total {
		s.finish(state, StatusFailed, "all instruments failed")
		return
	}

	s.persist(task)
	s.finish(state, StatusCompleted, fmt.Sprintf("analyzed %d of %d instruments", len(task.Reports), task.Total))
}

// persist converts completed reports into screening candidates and saves
// them under today's date. Failure here is logged, never fatal to the task.
func (s *Scheduler) persist(task *Task) {
	if s.recommender == nil {
		return
	}

	records := make([]*models.StockRecord, 0, len(task.Reports))
	for _, report := range task.Reports {
		if report.Degraded() {
			continue
		}
		records = append(records, models.RecordFromReport(report))
	}
	if len(records) == 0 {
		return
	}

	date := s.now().Format("2006-01-02")
	persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.recommender.Save(persistCtx, date, records); err != nil {
		logger.Error("Task persistence failed",
			logger.String("task_id", task.ID),
			logger.String("date", date),
			logger.ErrorField(err),
		)
	}
}

func (s *Scheduler) update(state *taskState, mutate func(*Task)) {
	s.mu.Lock()
	mutate(state.task)
	s.mu.Unlock()
}

func (s *Scheduler) finish(state *taskState, status TaskStatus, message string) {
	finished := s.now()
	s.update(state, func(t *Task) {
		t.Status = status
		t.Message = message
		t.CurrentItem = ""
		t.FinishedAt = &finished
		if status == StatusFailed {
			t.Error = message
		}
	})

	logger.TasksTotal.WithLabelValues(string(status)).Inc()
	if state.task.StartedAt != nil {
		logger.TaskDuration.Observe(finished.Sub(*state.task.StartedAt).Seconds())
	}
	logger.Info("Task finished",
		logger.String("task_id", state.task.ID),
		logger.String("status", string(status)),
		logger.Int("progress", state.task.Progress),
		logger.Int("total", state.task.Total),
	)
}

// evictLocked drops the oldest terminal tasks beyond the history limit.
// Caller holds the lock.
func (s *Scheduler) evictLocked() {
	for len(s.order) > s.historyLimit {
		evicted := false
		for i, id := range s.order {
			if s.tasks[id].task.Status.Terminal() {
				delete(s.tasks, id)
				s.order = append(s.order[:i], s.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}
