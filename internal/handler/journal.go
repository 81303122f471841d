package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ritualhq/ritual/internal/auth"
	"github.com/ritualhq/ritual/internal/model"
	"github.com/ritualhq/ritual/internal/store"
	"github.com/ritualhq/ritual/internal/streak"
)

const journalListLimit = 90

type JournalHandler struct {
	journal *store.JournalStore
	logger  *slog.Logger
}

func NewJournalHandler(js *store.JournalStore, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{journal: js, logger: logger}
}

// Upsert writes the day's journal entry; one entry per user per date.
func (h *JournalHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		Date    string `json:"date"`
		Content string `json:"content"`
		Mood    string `json:"mood"`
	}
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

	entry, err := h.journal.Upsert(userID, req.Date, req.Content, req.Mood)
	if err != nil {
		h.logger.Error("upsert journal entry", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save journal entry"})
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// Get returns the entry for ?date=YYYY-MM-DD, or the recent list when no
// date is given.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	date := r.URL.Query().Get("date")
	if date == "" {
		entries, err := h.journal.List(userID, journalListLimit)
		if err != nil {
			h.logger.Error("list journal entries", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list journal entries"})
			return
		}
		if entries == nil {
			entries = []model.JournalEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	if _, err := time.Parse(streak.DateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	entry, err := h.journal.GetByDate(userID, date)
	if err != nil {
		h.logger.Error("get journal entry", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get journal entry"})
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no journal entry for that date"})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
