package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	agentsx "github.com/merchantkit/assistant/agent/agents"
	llmx "github.com/merchantkit/assistant/agent/llm"
	statex "github.com/merchantkit/assistant/agent/state"
	supervisorx "github.com/merchantkit/assistant/agent/supervisor"
	toolx "github.com/merchantkit/assistant/agent/tool"
	"github.com/merchantkit/assistant/httpapi"
	magentox "github.com/merchantkit/assistant/magento"
	configx "github.com/merchantkit/assistant/pkg/config"
	_ "github.com/merchantkit/assistant/pkg/logger/autoload"
	openrouterx "github.com/merchantkit/assistant/pkg/openrouter"
	webhookx "github.com/merchantkit/assistant/pkg/webhook"
)

type AppConfig struct {
	Port            int           `split_words:"true" default:"8080"`
	ShutdownTimeout time.Duration `split_words:"true" default:"15s"`
	SkipModelCheck  bool          `split_words:"true" default:"false"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("APP")

	ctx := context.Background()

	store, cleanup := newStore(ctx)
	defer cleanup()

	magentoCfg := configx.MustNew[magentox.Config]("MAGENTO")
	backend := magentox.MustNew(*magentoCfg)

	catalog, err := toolx.NewCatalog(backend)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize tool catalog")
	}

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if !appCfg.SkipModelCheck {
		checkModel(ctx, *llmCfg)
	}

	registry, err := agentsx.NewRegistry(ctx, *llmCfg, catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize agent registry")
	}

	supCfg := configx.MustNew[supervisorx.Config]("SUPERVISOR")
	sensitiveNames := supCfg.SensitiveTools
	if len(sensitiveNames) == 0 {
		sensitiveNames = toolx.DefaultSensitive()
	}
	sensitive, err := toolx.NewSensitivity(sensitiveNames)
	if err != nil {
		log.Fatal().Err(err).Msg("configure sensitive tools")
	}

	var opts []supervisorx.Option
	webhookCfg := configx.MustNew[webhookx.Config]("WEBHOOK")
	if webhookCfg.URL != "" {
		notifier, err := webhookx.NewClient(*webhookCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize approval webhook")
		}
		opts = append(opts, supervisorx.WithNotifier(notifier))
	}

	assistant, err := supervisorx.New(store, registry, catalog, sensitive, *supCfg, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize supervisor")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	httpapi.NewHandler(assistant).RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", appCfg.Port)
		log.Info().Str("addr", addr).Msg("assistant listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func newStore(ctx context.Context) (statex.Store, func()) {
	cfg := configx.MustNew[statex.Config]("STATE")

	switch cfg.Backend {
	case "", "memory":
		var opts []statex.MemoryOption
		if cfg.TTL > 0 {
			opts = append(opts, statex.WithMemoryTTL(cfg.TTL))
		}
		return statex.NewMemoryStore(opts...), func() {}

	case "redis":
		var opts []statex.RedisOption
		if cfg.TTL > 0 {
			opts = append(opts, statex.WithRedisTTL(cfg.TTL))
		}
		store, err := statex.NewRedisStore(cfg.Redis, opts...)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize redis store")
		}
		return store, func() {}

	case "postgres":
		var opts []statex.PostgresOption
		if cfg.TTL > 0 {
			opts = append(opts, statex.WithPostgresTTL(cfg.TTL))
		}
		store, err := statex.NewPostgresStore(cfg.Postgres, opts...)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize postgres store")
		}
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure postgres schema")
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("close postgres store")
			}
		}

	default:
		log.Fatal().Str("backend", cfg.Backend).Msg("unknown state backend")
		return nil, nil
	}
}

// checkModel verifies the configured default model is reachable before the
// server starts taking traffic.
func checkModel(ctx context.Context, cfg llmx.Config) {
	client := openrouterx.NewClient(cfg.OpenRouterFor(llmx.RoleRouter))

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := openrouterx.HealthCheck(checkCtx, client, cfg.Model); err != nil {
		log.Fatal().Err(err).Str("model", cfg.Model).Msg("model health check failed")
	}
	log.Info().Str("model", cfg.Model).Msg("model health check passed")
}
