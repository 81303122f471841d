package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ritualhq/ritual/internal/auth"
	"github.com/ritualhq/ritual/internal/model"
	"github.com/ritualhq/ritual/internal/store"
	"github.com/ritualhq/ritual/internal/streak"
	"github.com/ritualhq/ritual/internal/tracker"
	"github.com/ritualhq/ritual/internal/websocket"
)

type EntryHandler struct {
	tracker *tracker.Service
	entries *store.EntryStore
	tasks   *store.TaskStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewEntryHandler(svc *tracker.Service, es *store.EntryStore, ts *store.TaskStore, hub *websocket.Hub, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{tracker: svc, entries: es, tasks: ts, hub: hub, logger: logger}
}

type entryRequest struct {
	Date            string   `json:"date"`
	Completed       bool     `json:"completed"`
	Value           *float64 `json:"value"`
	DurationMinutes *int     `json:"duration_minutes"`
	Notes           string   `json:"notes"`
}

// Upsert logs (or overwrites) the completion fact for one day and returns
// the entry once the task's streak aggregates have been recomputed.
func (h *EntryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	taskID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if req.Date == "" {
		req.Date = streak.Day(time.Now()).Format(streak.DateLayout)
	}
	if _, err := time.Parse(streak.DateLayout, req.Date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}
	if req.DurationMinutes != nil && *req.DurationMinutes < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "duration_minutes must be non-negative"})
		return
	}

	entry, err := h.tracker.LogEntry(userID, taskID, req.Date, req.Completed, req.Value, req.DurationMinutes, req.Notes)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
			return
		}
		h.logger.Error("log entry", "task_id", taskID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to log entry"})
		return
	}

	if h.hub != nil {
		h.hub.BroadcastUser(userID, websocket.NewMessage("entry", "logged", entry.ID, map[string]any{
			"task_id": taskID,
			"date":    entry.Date,
		}))
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	taskID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	task, err := h.tasks.GetByID(taskID, userID)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	entries, err := h.entries.ListForTask(taskID, userID)
	if err != nil {
		h.logger.Error("list entries", "task_id", taskID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list entries"})
		return
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
