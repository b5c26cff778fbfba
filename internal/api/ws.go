package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
	"github.com/mohamedkhairy/stock-advisor/internal/scheduler"
	"github.com/mohamedkhairy/stock-advisor/pkg/logger"
)

const (
	progressInterval = 500 * time.Millisecond
	wsWriteTimeout   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from arbitrary origins.
		return true
	},
}

// progressFrame is one message on the task progress stream. Reports are
// omitted until the task reaches a terminal state to keep frames small.
type progressFrame struct {
	TaskID      string               `json:"task_id"`
	Status      scheduler.TaskStatus `json:"status"`
	Progress    int                  `json:"progress"`
	Total       int                  `json:"total"`
	CurrentItem string               `json:"current_item,omitempty"`
	Message     string               `json:"message,omitempty"`
	Task        *scheduler.Task      `json:"task,omitempty"`
}

// StreamTask handles GET /api/v1/tasks/{id}/stream. It upgrades to a
// websocket and pushes progress frames until the task reaches a terminal
// state, then sends the full task and closes.
func (h *TaskHandler) StreamTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.scheduler.Get(id); errors.Is(err, models.ErrTaskNotFound) {
		respondWithError(w, http.StatusNotFound, "Task not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed",
			logger.String("task_id", id),
			logger.ErrorField(err),
		)
		return
	}
	defer conn.Close()

	// Drain client messages so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	var lastProgress = -1
	var lastStatus scheduler.TaskStatus
	for {
		task, err := h.scheduler.Get(id)
		if err != nil {
			return
		}

		if task.Progress != lastProgress || task.Status != lastStatus {
			lastProgress = task.Progress
			lastStatus = task.Status

			frame := progressFrame{
				TaskID:      task.ID,
				Status:      task.Status,
				Progress:    task.Progress,
				Total:       task.Total,
				CurrentItem: task.CurrentItem,
				Message:     task.Message,
			}
			if task.Status.Terminal() {
				frame.Task = task
			}

			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}

		if task.Status.Terminal() {
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(task.Status)))
			return
		}

		select {
		case <-ticker.C:
		case <-r.Context().Done():
			return
		}
	}
}
