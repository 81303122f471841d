package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ritualhq/ritual/internal/handler"
	"github.com/ritualhq/ritual/internal/middleware"
	"github.com/ritualhq/ritual/internal/push"
	"github.com/ritualhq/ritual/internal/store"
	"github.com/ritualhq/ritual/internal/tracker"
	ws "github.com/ritualhq/ritual/internal/websocket"
)

// Config holds server-level options read from the environment in main.
type Config struct {
	SecureCookies bool
	Push          push.Config
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	taskH         *handler.TaskHandler
	entryH        *handler.EntryHandler
	journalH      *handler.JournalHandler
	statsH        *handler.StatsHandler
	authH         *handler.AuthHandler
	pushH         *handler.PushHandler
	sessionStore  *store.SessionStore
	pushScheduler *push.Scheduler
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	taskStore := store.NewTaskStore(db)
	entryStore := store.NewEntryStore(db)
	journalStore := store.NewJournalStore(db)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	pushStore := store.NewPushStore(db)

	trackerSvc := tracker.NewService(taskStore, entryStore, logger.With("component", "tracker"))

	// Push notification service + scheduler, only when VAPID keys are set
	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.Push)
		pushSched = push.NewScheduler(pushSvc, pushStore, taskStore, entryStore, logger.With("component", "push"))
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	return &Server{
		db:            db,
		hub:           hub,
		taskH:         handler.NewTaskHandler(taskStore, hub, logger.With("component", "task")),
		entryH:        handler.NewEntryHandler(trackerSvc, entryStore, taskStore, hub, logger.With("component", "entry")),
		journalH:      handler.NewJournalHandler(journalStore, logger.With("component", "journal")),
		statsH:        handler.NewStatsHandler(trackerSvc, logger.With("component", "stats")),
		authH:         handler.NewAuthHandler(userStore, sessionStore, cfg.SecureCookies, logger.With("component", "auth")),
		pushH:         pushH,
		sessionStore:  sessionStore,
		pushScheduler: pushSched,
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushScheduler returns the reminder scheduler, or nil when push is not
// configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// Task API routes
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("PUT /api/tasks/reorder", s.taskH.Reorder)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Entry API routes
	mux.HandleFunc("POST /api/tasks/{id}/entries", s.entryH.Upsert)
	mux.HandleFunc("GET /api/tasks/{id}/entries", s.entryH.List)

	// Statistics
	mux.HandleFunc("GET /api/statistics", s.statsH.Get)

	// Journal API routes
	mux.HandleFunc("GET /api/journal", s.journalH.Get)
	mux.HandleFunc("PUT /api/journal", s.journalH.Upsert)

	// Push notification API routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
