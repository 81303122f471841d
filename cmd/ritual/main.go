package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ritualhq/ritual/internal/database"
	"github.com/ritualhq/ritual/internal/logging"
	"github.com/ritualhq/ritual/internal/push"
	"github.com/ritualhq/ritual/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("RITUAL_LOG_LEVEL"), os.Getenv("RITUAL_LOG_FORMAT"))

	port := os.Getenv("RITUAL_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("RITUAL_DB_PATH")
	if dbPath == "" {
		dbPath = "ritual.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		SecureCookies: os.Getenv("RITUAL_SECURE_COOKIES") == "true",
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("RITUAL_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("RITUAL_VAPID_PRIVATE_KEY"),
			Subscriber:      os.Getenv("RITUAL_PUSH_CONTACT"),
		},
	}

	srv := server.New(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	}

	// Periodic cleanup of expired sessions and stale rate-limit buckets.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Warn("session cleanup", "error", err)
				} else if n > 0 {
					logger.Debug("session cleanup", "deleted", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("ritual running", "addr", "http://localhost:"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
