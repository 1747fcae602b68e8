package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/application"
	"github.com/iota-uz/orgchart/pkg/configuration"
	"github.com/iota-uz/orgchart/pkg/eventbus"
	"github.com/iota-uz/orgchart/pkg/logging"
	"github.com/iota-uz/orgchart/pkg/metrics"
	"github.com/iota-uz/orgchart/pkg/middleware"
	"github.com/iota-uz/orgchart/pkg/server"
)

func newServeCmd() *cobra.Command {
	var (
		envFiles []string
		migrate  bool
		warm     bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the org chart HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := configuration.Load(envFiles...)
			if err != nil {
				return withCode(exitUsage, err)
			}
			defer conf.Unload()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, conf, migrate, warm)
		},
	}
	cmd.Flags().StringSliceVar(&envFiles, "env-file", []string{".env", ".env.local"}, "env files to load")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create the employee table before serving (postgres source)")
	cmd.Flags().BoolVar(&warm, "warm", true, "load the employee source before accepting requests")
	return cmd
}

func serve(ctx context.Context, conf *configuration.Configuration, migrate, warm bool) error {
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		cleanup := logging.SetupTracing(ctx, logger, conf.OpenTelemetry.ServiceName, conf.OpenTelemetry.TempoURL)
		defer cleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to " + conf.OpenTelemetry.TempoURL)
	}

	var (
		pool *pgxpool.Pool
		db   persistence.Querier
	)
	if conf.OrgChart.Source == configuration.SourcePostgres {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		p, err := pgxpool.New(connectCtx, conf.Database.Opts)
		cancel()
		if err != nil {
			return withCode(exitSource, fmt.Errorf("connect postgres: %w", err))
		}
		defer p.Close()
		pool, db = p, p
		if migrate {
			if err := persistence.NewPgEmployeeRepository(p).EnsureSchema(ctx); err != nil {
				return withCode(exitSource, err)
			}
		}
	}

	var redisClient *redis.Client
	if conf.OrgChart.StateStore == configuration.StateStoreRedis {
		client, err := orgchart.NewRedisClient(conf.RedisURL)
		if err != nil {
			return withCode(exitUsage, err)
		}
		defer func() { _ = client.Close() }()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return withCode(exitServe, fmt.Errorf("ping redis: %w", err))
		}
		redisClient = client
	}

	employees, err := orgchart.NewEmployeeRepository(conf, db)
	if err != nil {
		return withCode(exitUsage, err)
	}
	var universal redis.UniversalClient
	if redisClient != nil {
		universal = redisClient
	}
	sessionRepo, err := orgchart.NewSessionRepository(conf, universal)
	if err != nil {
		return withCode(exitUsage, err)
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := application.LoadModules(app, orgchart.NewModule(&orgchart.ModuleOptions{
		Employees: employees,
		Sessions:  sessionRepo,
		Service:   orgchart.ServiceOptions(conf),
	})); err != nil {
		return withCode(exitServe, err)
	}

	loggerOpts := middleware.DefaultLoggerOptions()
	loggerOpts.RequestIDHeader = conf.RequestIDHeader
	app.RegisterMiddleware(
		middleware.WithLogger(logger, loggerOpts),
		middleware.Cors(conf.CorsOrigins...),
	)
	if conf.RateLimit.Enabled {
		app.RegisterMiddleware(middleware.RateLimit(conf.RateLimit.GlobalRPS, logger))
	}
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path, prometheus.DefaultGatherer))
	}

	if warm {
		svc := app.Service(services.OrgChartService{}).(*services.OrgChartService)
		if _, err := svc.Refresh(ctx); err != nil {
			// requests retry the load lazily until one succeeds
			logger.WithError(err).Warn("initial employee load failed")
		}
	}

	logger.WithFields(logrus.Fields{
		"address":     conf.SocketAddress,
		"source":      conf.OrgChart.Source,
		"state-store": conf.OrgChart.StateStore,
	}).Info("orgchart server listening")
	if err := server.NewHTTPServer(app).Start(ctx, conf.SocketAddress); err != nil {
		return withCode(exitServe, err)
	}
	logger.Info("orgchart server stopped")
	return nil
}
