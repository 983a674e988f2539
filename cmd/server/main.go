package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/artboard/artboard/internal/asset"
	"github.com/artboard/artboard/internal/auth"
	"github.com/artboard/artboard/internal/config"
	"github.com/artboard/artboard/internal/db"
	"github.com/artboard/artboard/internal/drawing"
	"github.com/artboard/artboard/internal/imagecache"
	mw "github.com/artboard/artboard/internal/middleware"
	"github.com/artboard/artboard/internal/session"
	"github.com/artboard/artboard/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		users    auth.UserStore
		drawings storage.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			slog.Error("migrate database", "error", err)
			os.Exit(1)
		}
		users = auth.NewPostgresUsers(pool)
		drawings = storage.NewPostgres(pool)
	} else {
		slog.Warn("DATABASE_URL not set, drawings are kept in memory")
		users = auth.NewMemoryUsers()
		drawings = storage.NewMemory()
	}

	authService := auth.NewService(users, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	images := imagecache.NewDir(cfg.AssetDir)
	drawingService := drawing.NewService(drawings, images, cfg.EngineOptions())
	drawingHandler := drawing.NewHandler(drawingService)
	assetHandler := asset.NewHandler(images)

	hub := session.NewHub(drawingService)
	go hub.Run(ctx, cfg.AutosaveInterval)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Element sprites (public)
	assetHandler.Routes(r)

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)
	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	drawingHandler.Routes(api)

	// WebSocket endpoint, token passed as ?token=
	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(authService.AuthMiddleware)
	ws.HandleFunc("/drawings/{drawingId}", hub.ServeWS(mw.OriginPatterns(cfg.Origins())))

	// CORS wraps the router so preflights are answered before routing
	handler := mw.CORS(cfg.Origins())(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all open drawings
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
		cancel()
	}()

	slog.Info("server starting", "addr", addr, "assets", cfg.AssetDir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
