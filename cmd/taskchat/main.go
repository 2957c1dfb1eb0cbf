package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/taskchat/taskchat/internal/agent"
	"github.com/taskchat/taskchat/internal/config"
	"github.com/taskchat/taskchat/internal/httpapi"
	"github.com/taskchat/taskchat/internal/llm"
	"github.com/taskchat/taskchat/internal/session"
	"github.com/taskchat/taskchat/internal/store"
	"github.com/taskchat/taskchat/internal/tools"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*configPath, logger); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}

func run(configPath string, logger *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.LLM.APIKey == "" {
		return errors.New("no API key configured; set llm.api_key or GEMINI_API_KEY")
	}

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := session.NewManager(cfg.Session.MaxTurns, cfg.Session.IdleTTL)
	sessions.StartEvictor(ctx)

	client := llm.NewGeminiClient(cfg.LLM.APIKey, cfg.LLM.Model)
	dispatcher := tools.NewDispatcher(db, logger)
	orchestrator := agent.New(client, dispatcher, db, sessions, logger, cfg.Agent.MaxToolRounds)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpapi.NewServer(orchestrator, db, db, logger).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
