package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/angesh007/CollabCode/internal/api"
	"github.com/angesh007/CollabCode/internal/assist"
	"github.com/angesh007/CollabCode/internal/config"
	"github.com/angesh007/CollabCode/internal/events"
	"github.com/angesh007/CollabCode/internal/jobs"
	"github.com/angesh007/CollabCode/internal/llm"
	_ "github.com/angesh007/CollabCode/internal/llm/gemini"
	_ "github.com/angesh007/CollabCode/internal/llm/mock"
	"github.com/angesh007/CollabCode/internal/routers"
	"github.com/angesh007/CollabCode/internal/session"
	"github.com/angesh007/CollabCode/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	logger.Info("Configuration loaded",
		zap.String("provider", cfg.Provider),
		zap.Bool("persist_rooms", cfg.PersistRooms),
		zap.Duration("debounce", cfg.DebounceWindow))

	provider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Fatal("Failed to initialize AI provider", zap.Error(err))
	}

	hub := session.NewHub(logger)

	var roomStore *store.Store
	roomStore, err = store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("Failed to initialize database, room persistence disabled", zap.Error(err))
		roomStore = nil
	}

	var flusher *jobs.SnapshotFlusherJob
	if roomStore != nil {
		hub.AttachStore(roomStore, cfg.PersistRooms)
		if cfg.PersistRooms {
			flusher = jobs.NewSnapshotFlusherJob(hub, roomStore, cfg.SnapshotSchedule, logger)
			if err := flusher.Start(); err != nil {
				logger.Error("Failed to start snapshot flusher", zap.Error(err))
			}
		}
	}

	var publisher *events.Publisher
	if cfg.RedisAddr != "" {
		publisher = events.NewPublisher(cfg.RedisAddr)
		hub.AttachPublisher(publisher)
		logger.Info("Session event publishing enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	gateway := assist.NewGateway(provider, cfg.DebounceWindow, cfg.AssistTimeout, logger)
	handlers := api.NewHandlers(logger, cfg, hub, gateway, provider)

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer)
	router.Mount("/", routers.New(handlers))

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("collab server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("collab server shutting down...")

	if flusher != nil {
		flusher.Stop()
		flusher.RunFlush()
	}
	if publisher != nil {
		_ = publisher.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("collab server exited")
}
