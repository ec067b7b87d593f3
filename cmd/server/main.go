package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budget-tracker/internal/config"
	"budget-tracker/internal/handlers"
	"budget-tracker/internal/middleware/trace"
	"budget-tracker/internal/storage"
	"budget-tracker/web"
)

func setupRouter(h *handlers.Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.Handle("GET /logout", h.AuthMiddleware(http.HandlerFunc(h.Logout)))

	mux.Handle("GET /{$}", h.AuthMiddleware(http.HandlerFunc(h.Ledger)))
	mux.Handle("POST /{$}", h.AuthMiddleware(http.HandlerFunc(h.CreateTransaction)))
	mux.Handle("POST /reset", h.AuthMiddleware(http.HandlerFunc(h.Reset)))

	mux.Handle("GET /static/", http.FileServerFS(web.StaticFS))

	return trace.Middleware(mux)
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	if count, err := db.UserCount(); err == nil && count == 0 {
		slog.Info("no users registered yet; visit /register or use cmd/adduser")
	}

	if err := db.CleanExpiredSessions(); err != nil {
		slog.Warn("failed to clean expired sessions", "error", err)
	}

	h := handlers.NewHandlers(db, cfg.SecureCookie)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        setupRouter(h),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		cancel()
	}()

	slog.Info("starting budget tracker", "port", cfg.Port, "db", cfg.DBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
}
