package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/spendagent/internal/adapter/llm"
	"github.com/xiaot623/spendagent/internal/adapter/payments"
	"github.com/xiaot623/spendagent/internal/config"
	"github.com/xiaot623/spendagent/internal/log"
	store "github.com/xiaot623/spendagent/internal/repository"
	"github.com/xiaot623/spendagent/internal/service"
	"github.com/xiaot623/spendagent/internal/tools"
	server "github.com/xiaot623/spendagent/internal/transport/http"
	"github.com/xiaot623/spendagent/policy"
)

func main() {
	if err := run(); err != nil {
		l := log.Base()
		l.Fatal().Err(err).Msg("spendagent stopped")
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log.Configure(log.Config{Level: cfg.Log.Level, Service: cfg.Log.Service})
	logger := log.WithComponent("main")

	logger.Info().
		Int("port", cfg.Server.Port).
		Bool("mock", cfg.IsMock()).
		Str("llm_base_url", cfg.LLM.BaseURL).
		Str("model", cfg.LLM.Model).
		Msg("starting spendagent")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize journal
	var journal store.Store = store.NopStore{}
	if cfg.Database.URL != "" {
		db, err := store.NewSQLiteStore(cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("initialize store: %w", err)
		}
		journal = db
	}
	defer journal.Close()

	// Initialize payments provider
	var provider service.Provider
	if cfg.IsMock() {
		logger.Info().Msg("mock mode detected, using in-memory payments provider")
		provider = payments.NewDemoProvider()
	} else {
		provider = payments.NewStripeProvider(cfg.Stripe, cfg.Breaker)
	}

	// Initialize resolver
	catalog := tools.NewCatalog()
	resolver := llm.NewResolver(llm.NewLLMClient(cfg), catalog, cfg.LLM.Model, cfg.LLM.SystemPrompt)

	// Initialize policy engine
	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.Policy.Path)
	if err != nil {
		return fmt.Errorf("initialize policy engine: %w", err)
	}

	svc := service.New(provider, resolver, catalog, policyEngine, journal)
	e := server.NewServer(svc, cfg.Server)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info().Str("addr", addr).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("spendagent stopped")
	return nil
}
