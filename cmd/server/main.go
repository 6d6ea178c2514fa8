package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/WPMirror/cmd/server/factory"
	"github.com/WPMirror/internal/app"
	"github.com/WPMirror/internal/infra/tracing"
	transport "github.com/WPMirror/internal/transport/http"
	"github.com/WPMirror/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	fx.New(
		fx.Supply(cfg),
		fx.Provide(
			// Infrastructure
			factory.NewMongoClient,
			factory.NewMongoRepository,
			fx.Annotate(
				factory.NewMainKafkaProducer,
				fx.ResultTags(`name:"main_producer"`),
			),
			fx.Annotate(
				factory.NewDLQProducer,
				fx.ResultTags(`name:"dlq_producer"`),
			),
			fx.Annotate(
				factory.NewKafkaConsumer,
				fx.ParamTags(``, `name:"dlq_producer"`, ``),
			),

			// Gateways & Producers
			factory.NewIndexGateway,
			fx.Annotate(
				factory.NewEventProducer,
				fx.ParamTags(`name:"main_producer"`),
			),

			// WordPress sites
			factory.NewSites,
			factory.NewSiteClients,
			factory.NewSiteProbes,
			factory.NewProviders,

			// Services
			factory.NewMirrorService,
			factory.NewIndexSyncService,

			// HTTP Server
			transport.NewHTTPServer,
		),
		fx.Invoke(
			SetupTracer,
			WaitForReady, // Block until dependencies are ready
			RegisterHooks,
			StartServer,
		),
	).Run()
}

// --- Invokers ---

func RegisterHooks(lc fx.Lifecycle, service *app.MirrorService, syncService *app.IndexSyncService) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go service.Start(ctx)
			syncService.Start(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}

func SetupTracer(lc fx.Lifecycle, cfg *config.Config) error {
	shutdown, err := tracing.InitTracer(context.Background(), "wp-mirror", cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("Failed to initialize tracer", "error", err)
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Info("Shutting down tracer provider")
			return shutdown(ctx)
		},
	})
	return nil
}

// WaitForReady blocks until MongoDB and Kafka are ready and probes the sites.
func WaitForReady(
	cfg *config.Config,
	mongoClient *mongo.Client,
	sites []app.SiteProbe,
) error {
	waiter := app.NewReadinessWaiter(
		mongoClient,
		cfg.KafkaBrokers,
		cfg.KafkaTopic,
		sites,
	)
	return waiter.WaitForDependencies(context.Background())
}

func StartServer(lc fx.Lifecycle, server *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				slog.Info("Starting HTTP server", "address", server.Addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("HTTP server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
