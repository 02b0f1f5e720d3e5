package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mixtape/config"
	"mixtape/core/auth"
	"mixtape/core/catalog"
	"mixtape/core/tags"
	"mixtape/core/updates"
	"mixtape/core/upload"
	"mixtape/logger"
	"mixtape/store"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     28,
	})

	ensureDirExists(cfg.SongsDir)
	ensureDirExists(cfg.SettingsDir)

	st := store.New(cfg.SettingsDir)
	cat := catalog.New(cfg.SongsDir, st, tags.NewReader())
	authMgr := auth.New(st)
	sessions := auth.NewSessionManager(cfg.SessionTTL)
	validator := upload.NewValidator(cfg.SongsDir)
	checker := updates.NewChecker(cfg.UpdateRepo, config.Version)

	apiHandler := NewAPIHandler(cfg, st, cat, authMgr, sessions, validator, checker)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "SAMEORIGIN")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	})

	// Admin API
	router.HandleFunc("/api/command", apiHandler.CommandHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/upload", apiHandler.UploadHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/logout", apiHandler.LogoutHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/session", apiHandler.SessionHandler).Methods(http.MethodGet)

	// Public surface
	router.HandleFunc("/api/playlist", apiHandler.PlaylistHandler).Methods(http.MethodGet)
	router.HandleFunc("/feed.xml", apiHandler.FeedHandler).Methods(http.MethodGet)
	router.HandleFunc("/songs/{filename}", apiHandler.SongFileHandler).Methods(http.MethodGet, http.MethodHead)

	// The settings directory is never served.
	router.PathPrefix("/settings/").HandlerFunc(SettingsDeniedHandler)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Reconcile the catalog once at startup, then keep it in sync with the
	// directory.
	if _, err := cat.Scan(); err != nil {
		logger.Warn("initial scan failed", logger.ErrorField(err))
	}

	watcherStop := make(chan struct{})
	if err := watchSongsDir(cfg.SongsDir, cat, watcherStop); err != nil {
		logger.Warn("songs watcher unavailable", logger.ErrorField(err))
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")
	close(watcherStop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			logger.Fatal("failed to create directory",
				logger.String("path", path), logger.ErrorField(err))
		}
	} else if err != nil {
		logger.Fatal("failed to check directory",
			logger.String("path", path), logger.ErrorField(err))
	}
}
