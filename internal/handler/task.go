package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ritualhq/ritual/internal/auth"
	"github.com/ritualhq/ritual/internal/model"
	"github.com/ritualhq/ritual/internal/store"
	"github.com/ritualhq/ritual/internal/websocket"
)

var validFrequencies = map[string]bool{
	"daily":  true,
	"weekly": true,
}

type TaskHandler struct {
	tasks  *store.TaskStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: ts, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.BroadcastUser(userID, msg)
	}
}

type taskRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Frequency   *string  `json:"frequency"`
	TargetValue *float64 `json:"target_value"`
	Unit        *string  `json:"unit"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	title := ""
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
	}
	if title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	frequency := "daily"
	if req.Frequency != nil && *req.Frequency != "" {
		frequency = *req.Frequency
	}
	if !validFrequencies[frequency] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "frequency must be daily or weekly"})
		return
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	unit := ""
	if req.Unit != nil {
		unit = *req.Unit
	}

	task, err := h.tasks.Create(userID, title, description, frequency, req.TargetValue, unit)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create task"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("task", "created", task.ID, nil))

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	tasks, err := h.tasks.List(userID)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	task, err := h.tasks.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Update applies a partial update; absent fields keep their current values.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.tasks.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	title := existing.Title
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
	}
	if title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	frequency := existing.Frequency
	if req.Frequency != nil {
		frequency = *req.Frequency
	}
	if !validFrequencies[frequency] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "frequency must be daily or weekly"})
		return
	}

	description := existing.Description
	if req.Description != nil {
		description = *req.Description
	}
	targetValue := existing.TargetValue
	if req.TargetValue != nil {
		targetValue = req.TargetValue
	}
	unit := existing.Unit
	if req.Unit != nil {
		unit = *req.Unit
	}

	task, err := h.tasks.Update(id, userID, title, description, frequency, targetValue, unit)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("task", "updated", id, nil))

	writeJSON(w, http.StatusOK, task)
}

// Delete soft-deletes a task; its entry log stays on disk.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.tasks.Deactivate(id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
			return
		}
		h.logger.Error("delete task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete task"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("task", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

// Reorder moves one task to another task's position. Either ID missing
// from the user's active list fails the whole request; no ranks change.
func (h *TaskHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		DraggedTaskID int64 `json:"dragged_task_id"`
		TargetTaskID  int64 `json:"target_task_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.DraggedTaskID == 0 || req.TargetTaskID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dragged_task_id and target_task_id are required"})
		return
	}

	if err := h.tasks.Reorder(userID, req.DraggedTaskID, req.TargetTaskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
			return
		}
		h.logger.Error("reorder tasks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reorder tasks"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("task", "reordered", req.DraggedTaskID, nil))

	tasks, err := h.tasks.List(userID)
	if err != nil {
		h.logger.Error("list tasks after reorder", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
