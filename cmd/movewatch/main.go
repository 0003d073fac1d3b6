package main

import (
	"context"
	"errors"
	"os"

	"github.com/kelseyhightower/envconfig"

	"github.com/gabapcia/movewatch/internal/eventfeed"
	"github.com/gabapcia/movewatch/internal/handlers/cli"
	registryredis "github.com/gabapcia/movewatch/internal/infra/moduleregistry/redis"
	registryrpc "github.com/gabapcia/movewatch/internal/infra/moduleregistry/rpc"
	"github.com/gabapcia/movewatch/internal/moveschema"
	"github.com/gabapcia/movewatch/internal/pkg/logger"
	"github.com/gabapcia/movewatch/internal/pkg/resilience/retry"
	"github.com/gabapcia/movewatch/internal/pkg/telemetry"
	transporthttp "github.com/gabapcia/movewatch/internal/pkg/transport/http"
	"github.com/gabapcia/movewatch/internal/pkg/transport/jsonrpc"
)

const serviceName = "movewatch"

// Config holds every environment-driven setting of the movewatch process.
type Config struct {
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	FullnodeRPCEndpoint string `envconfig:"FULLNODE_RPC_ENDPOINT"`

	FeedIncludeTypes bool `envconfig:"FEED_INCLUDE_TYPES" default:"false"`
	FeedWorkerCount  int  `envconfig:"FEED_WORKER_COUNT" default:"4"`
}

// buildResolver selects the module registry adapter from the configuration:
// Redis when an address is set, otherwise the fullnode JSON-RPC API. The
// returned closer releases the adapter's resources, if it holds any.
func buildResolver(ctx context.Context, cfg Config) (moveschema.ModuleResolver, cli.ModulePublisher, func() error, error) {
	if cfg.RedisAddr != "" {
		registry, err := registryredis.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, nil, err
		}
		return registry, registry, registry.Close, nil
	}

	conn := jsonrpc.NewClient(transporthttp.NewClient().StandardClient(), cfg.FullnodeRPCEndpoint)
	return registryrpc.NewResolver(conn), readOnlyRegistry{}, func() error { return nil }, nil
}

// readOnlyRegistry rejects publish attempts when the process is configured
// with the fullnode resolver, which cannot accept module definitions.
type readOnlyRegistry struct{}

func (readOnlyRegistry) PublishModule(context.Context, *moveschema.ModuleDefinition) error {
	return errors.New("module publishing requires a Redis registry (set REDIS_ADDR)")
}

func main() {
	ctx := context.Background()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		_ = logger.Init()
		logger.Fatal(ctx, "invalid configuration", "error", err)
	}

	// Telemetry comes up before the logger so the otelzap bridge attaches.
	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, serviceName)
		if err != nil {
			_ = logger.Init()
			logger.Fatal(ctx, "telemetry initialization failed", "error", err)
		}
		defer func() { _ = shutdown(ctx) }()
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		_ = logger.Init()
		logger.Fatal(ctx, "logger initialization failed", "error", err)
	}
	defer func() { _ = logger.Sync() }()

	resolver, publisher, closeRegistry, err := buildResolver(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "module registry initialization failed", "error", err)
	}
	defer func() { _ = closeRegistry() }()

	feedOpts := []eventfeed.Option{
		eventfeed.WithWorkerCount(cfg.FeedWorkerCount),
		eventfeed.WithRetry(retry.New()),
	}
	if cfg.FeedIncludeTypes {
		feedOpts = append(feedOpts, eventfeed.WithFormat(moveschema.Format{IncludeTypes: true}))
	}

	feed := eventfeed.New(eventfeed.NewReaderSource(os.Stdin), resolver, feedOpts...)

	if err := cli.Run(ctx, resolver, publisher, feed); err != nil {
		logger.Fatal(ctx, "movewatch exited with an error", "error", err)
	}
}
