package handler

import (
	"log/slog"
	"net/http"

	"github.com/ritualhq/ritual/internal/auth"
	"github.com/ritualhq/ritual/internal/tracker"
)

type StatsHandler struct {
	tracker *tracker.Service
	logger  *slog.Logger
}

func NewStatsHandler(svc *tracker.Service, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{tracker: svc, logger: logger}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	stats, err := h.tracker.Statistics(userID)
	if err != nil {
		h.logger.Error("compute statistics", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute statistics"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
