package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mohamedkhairy/stock-advisor/internal/analyzer"
	"github.com/mohamedkhairy/stock-advisor/internal/models"
	"github.com/mohamedkhairy/stock-advisor/internal/scheduler"
	"github.com/mohamedkhairy/stock-advisor/internal/screener"
	"github.com/mohamedkhairy/stock-advisor/internal/store"
	"github.com/mohamedkhairy/stock-advisor/internal/watchlist"
	"github.com/mohamedkhairy/stock-advisor/pkg/logger"
)

const defaultListLimit = 50

// ScreenHandler handles screening endpoints
type ScreenHandler struct {
	screener       *screener.Screener
	recommendStore store.RecommendationStore
	recordStore    store.ScreenRecordStore
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(s *screener.Screener, recommendStore store.RecommendationStore, recordStore store.ScreenRecordStore) *ScreenHandler {
	return &ScreenHandler{
		screener:       s,
		recommendStore: recommendStore,
		recordStore:    recordStore,
	}
}

// ScreenRequest is the body for POST /api/v1/screen
type ScreenRequest struct {
	PresetKey   string            `json:"preset_key,omitempty"`
	Conditions  *models.Condition `json:"conditions,omitempty"`
	SortByScore bool              `json:"sort_by_score,omitempty"`
	Date        string            `json:"date,omitempty"`
	Save        bool              `json:"save,omitempty"`
	Name        string            `json:"name,omitempty"`
}

// Screen handles POST /api/v1/screen. It screens the candidate pool for the
// given date (today by default) with either an inline condition, a preset, or
// a preset plus overrides.
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Conditions != nil {
		if err := req.Conditions.Validate(); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	candidates, err := h.recommendStore.List(r.Context(), date, 0)
	if err != nil {
		logger.Error("Failed to load candidates", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load candidates")
		return
	}

	// Resolve the effective condition up front so a saved record replays
	// without the preset catalog.
	effective := req.Conditions
	if req.PresetKey != "" {
		preset, err := h.screener.Presets().Get(req.PresetKey)
		if errors.Is(err, models.ErrPresetNotFound) {
			respondWithError(w, http.StatusNotFound, "Preset not found")
			return
		}
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Screening failed")
			return
		}
		effective = preset.Condition.Merge(req.Conditions)
	}

	opts := screener.Options{SortByScore: req.SortByScore}
	result := h.screener.Screen(candidates, effective, opts)

	response := map[string]interface{}{
		"date":    date,
		"matched": result.Matched,
		"summary": result.Summary,
	}

	if req.Save {
		record := buildScreenRecord(req, effective, result)
		if err := h.recordStore.Save(r.Context(), record); err != nil {
			logger.Error("Failed to save screen record",
				logger.String("record_id", record.ID),
				logger.ErrorField(err),
			)
		} else {
			response["record_id"] = record.ID
		}
	}

	respondWithJSON(w, http.StatusOK, response)
}

func buildScreenRecord(req ScreenRequest, effective *models.Condition, result *screener.Result) *models.ScreenRecord {
	symbols := make([]string, 0, len(result.Matched))
	for _, record := range result.Matched {
		symbols = append(symbols, record.Symbol)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "screen " + time.Now().Format("2006-01-02 15:04")
	}
	return &models.ScreenRecord{
		ID:          uuid.NewString(),
		Name:        name,
		PresetKey:   req.PresetKey,
		Condition:   effective,
		ResultCount: len(result.Matched),
		Symbols:     symbols,
		Summary:     result.Summary,
		Results:     result.Matched,
		CreatedAt:   time.Now(),
	}
}

// ListPresets handles GET /api/v1/screen/presets
func (h *ScreenHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets := h.screener.Presets().List()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"presets": presets,
		"count":   len(presets),
	})
}

// ListRecords handles GET /api/v1/screen/records
func (h *ScreenHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.recordStore.List(r.Context(), parseLimit(r, defaultListLimit))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list screen records")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// GetRecord handles GET /api/v1/screen/records/{id}
func (h *ScreenHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	record, err := h.recordStore.Get(r.Context(), id)
	if errors.Is(err, models.ErrRecordNotFound) {
		respondWithError(w, http.StatusNotFound, "Screen record not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load screen record")
		return
	}
	respondWithJSON(w, http.StatusOK, record)
}

// DeleteRecord handles DELETE /api/v1/screen/records/{id}
func (h *ScreenHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.recordStore.Delete(r.Context(), id)
	if errors.Is(err, models.ErrRecordNotFound) {
		respondWithError(w, http.StatusNotFound, "Screen record not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to delete screen record")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// AnalyzeHandler handles single-instrument analysis endpoints
type AnalyzeHandler struct {
	engine *analyzer.Engine
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(engine *analyzer.Engine) *AnalyzeHandler {
	return &AnalyzeHandler{engine: engine}
}

// AnalyzeRequest is the body for POST /api/v1/analyze
type AnalyzeRequest struct {
	Symbol  string   `json:"symbol"`
	RuleIDs []string `json:"rule_ids,omitempty"`
}

// Analyze handles POST /api/v1/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.engine.Analyze(r.Context(), req.Symbol, req.RuleIDs)
	if errors.Is(err, models.ErrInvalidSymbol) {
		respondWithError(w, http.StatusBadRequest, "Symbol is required")
		return
	}
	if errors.Is(err, models.ErrInvalidRuleID) {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Analysis failed")
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// ListRules handles GET /api/v1/rules
func (h *AnalyzeHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules := h.engine.Registry().List()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"rules": rules,
		"count": len(rules),
	})
}

// TaskHandler handles batch analysis task endpoints
type TaskHandler struct {
	scheduler    *scheduler.Scheduler
	maxBatchSize int
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(s *scheduler.Scheduler, maxBatchSize int) *TaskHandler {
	return &TaskHandler{scheduler: s, maxBatchSize: maxBatchSize}
}

// TaskRequest is the body for POST /api/v1/tasks
type TaskRequest struct {
	Symbols []string `json:"symbols"`
	RuleIDs []string `json:"rule_ids,omitempty"`
}

// CreateTask handles POST /api/v1/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		respondWithError(w, http.StatusBadRequest, "Symbols are required")
		return
	}
	if h.maxBatchSize > 0 && len(req.Symbols) > h.maxBatchSize {
		respondWithError(w, http.StatusBadRequest, "Too many symbols in one batch")
		return
	}

	task, err := h.scheduler.Submit(req.Symbols, req.RuleIDs)
	if errors.Is(err, models.ErrInvalidSymbol) {
		respondWithError(w, http.StatusBadRequest, "Symbols are required")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Scheduler unavailable")
		return
	}

	respondWithJSON(w, http.StatusAccepted, task)
}

// ListTasks handles GET /api/v1/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.scheduler.List()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// GetTask handles GET /api/v1/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	task, err := h.scheduler.Get(id)
	if errors.Is(err, models.ErrTaskNotFound) {
		respondWithError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load task")
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

// CancelTask handles DELETE /api/v1/tasks/{id}
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.scheduler.Cancel(id)
	if errors.Is(err, models.ErrTaskNotFound) {
		respondWithError(w, http.StatusNotFound, "Task not found")
		return
	}
	if errors.Is(err, models.ErrTaskTerminal) {
		respondWithError(w, http.StatusConflict, "Task already finished")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to cancel task")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"cancelled": id})
}

// WatchlistHandler handles watchlist endpoints
type WatchlistHandler struct {
	manager   *watchlist.Manager
	scheduler *scheduler.Scheduler
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(manager *watchlist.Manager, s *scheduler.Scheduler) *WatchlistHandler {
	return &WatchlistHandler{manager: manager, scheduler: s}
}

// CreateGroup handles POST /api/v1/watchlist/groups
func (h *WatchlistHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, err := h.manager.CreateGroup(r.Context(), req.Name)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusCreated, group)
}

// ListGroups handles GET /api/v1/watchlist/groups
func (h *WatchlistHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.manager.ListGroups(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list groups")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"groups": groups,
		"count":  len(groups),
	})
}

// GetGroup handles GET /api/v1/watchlist/groups/{id}
func (h *WatchlistHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	group, err := h.manager.GetGroup(r.Context(), id)
	if errors.Is(err, models.ErrGroupNotFound) {
		respondWithError(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load group")
		return
	}
	respondWithJSON(w, http.StatusOK, group)
}

// DeleteGroup handles DELETE /api/v1/watchlist/groups/{id}
func (h *WatchlistHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.manager.DeleteGroup(r.Context(), id)
	if errors.Is(err, models.ErrGroupNotFound) {
		respondWithError(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to delete group")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// AddStock handles POST /api/v1/watchlist/groups/{id}/stocks
func (h *WatchlistHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Symbol string `json:"symbol"`
		Name   string `json:"stock_name,omitempty"`
		Note   string `json:"note,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, err := h.manager.AddStock(r.Context(), id, req.Symbol, req.Name, req.Note)
	if errors.Is(err, models.ErrGroupNotFound) {
		respondWithError(w, http.StatusNotFound, "Group not found")
		return
	}
	if errors.Is(err, models.ErrInvalidSymbol) {
		respondWithError(w, http.StatusBadRequest, "Symbol is required")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to add stock")
		return
	}
	respondWithJSON(w, http.StatusOK, group)
}

// RemoveStock handles DELETE /api/v1/watchlist/groups/{id}/stocks/{symbol}
func (h *WatchlistHandler) RemoveStock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	group, err := h.manager.RemoveStock(r.Context(), vars["id"], vars["symbol"])
	if errors.Is(err, models.ErrGroupNotFound) {
		respondWithError(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to remove stock")
		return
	}
	respondWithJSON(w, http.StatusOK, group)
}

// AnalyzeGroup handles POST /api/v1/watchlist/groups/{id}/analyze. It submits
// a batch analysis task over the group's members.
func (h *WatchlistHandler) AnalyzeGroup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	symbols, err := h.manager.Symbols(r.Context(), id)
	if errors.Is(err, models.ErrGroupNotFound) {
		respondWithError(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load group")
		return
	}
	if len(symbols) == 0 {
		respondWithError(w, http.StatusBadRequest, "Group has no stocks")
		return
	}

	task, err := h.scheduler.Submit(symbols, nil)
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Scheduler unavailable")
		return
	}
	respondWithJSON(w, http.StatusAccepted, task)
}
