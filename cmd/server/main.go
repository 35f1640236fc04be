package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jharjadi/pro-rag/context-api-go/internal/config"
	"github.com/jharjadi/pro-rag/context-api-go/internal/db"
	"github.com/jharjadi/pro-rag/context-api-go/internal/handler"
	authmw "github.com/jharjadi/pro-rag/context-api-go/internal/middleware"
	"github.com/jharjadi/pro-rag/context-api-go/internal/service"
	"github.com/jharjadi/pro-rag/context-api-go/internal/tokenizer"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.StartupChecks(ctx, pool); err != nil {
		slog.Error("startup checks failed", "error", err)
		os.Exit(1)
	}

	tok, err := tokenizer.NewTiktoken(cfg.Tokenizer)
	if err != nil {
		slog.Error("failed to load tokenizer", "error", err)
		os.Exit(1)
	}
	counter := tokenizer.NewCounter(tok)
	slog.Info("tokenizer loaded", "encoding", tok.Encoding())

	// Initialize services
	store := db.NewCachedConnectorStore(db.NewConnectorStore(pool), cfg.EmbeddingCacheSize, cfg.EmbeddingCacheTTL())
	resolver := service.NewEmbeddingResolver(store, cfg.EmbeddingDefaults(), cfg.EnableConnectorEmbeddingSettings, cfg.EmbeddingLookupConcurrency)
	pruner := service.NewPruner(counter, service.NewTemplateSizer(counter), resolver)
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiryHours)

	// Initialize handlers
	pruneHandler := handler.NewPruneHandler(pruner, service.DefaultPromptConfig(), cfg.DefaultLLM(), cfg.RequestMaxSizeBytes())
	connectorHandler := handler.NewConnectorHandler(resolver)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			slog.Warn("health check failed", "error", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// JWT when AUTH_ENABLED=true, X-Tenant-ID / tenant_id when false
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(authSvc, cfg.AuthEnabled))

		r.Post("/v1/prune", pruneHandler.Handle)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRole("admin"))
			r.Get("/v1/connectors/{id}/embedding-config", connectorHandler.EmbeddingConfig)
		})
	})

	slog.Info("pruning configuration",
		"auth_enabled", cfg.AuthEnabled,
		"connector_embedding_settings", cfg.EnableConnectorEmbeddingSettings,
		"doc_embedding_context_size", cfg.DocEmbeddingContextSize,
		"default_llm", cfg.LLMModel,
		"default_context_window", cfg.LLMContextWindow,
	)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Graceful shutdown
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-shutdownCtx.Done()
	slog.Info("shutting down server...")

	cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(cancelCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
