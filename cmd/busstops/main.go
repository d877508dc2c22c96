package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"busstops/internal/config"
	"busstops/internal/console"
	"busstops/internal/db"
	"busstops/internal/metrics"
	"busstops/internal/publisher"
	"busstops/internal/routes"
	"busstops/internal/stops"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	app := &cli.App{
		Name:  "busstops",
		Usage: "search bus routes and edit the arrival times of their stops",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "route",
				Usage: "open the stop screen of this route number directly",
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "serve Prometheus metrics on this address (overrides METRICS_ADDR)",
				EnvVars: []string{"METRICS_ADDR"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "zerolog level (overrides LOG_LEVEL)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func run(c *cli.Context) error {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if v := c.String("metrics-addr"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := c.String("log-level"); v != "" {
		if cfg.LogLevel, err = config.ParseLogLevel(v); err != nil {
			return err
		}
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector()
		srv := mcol.Serve(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	catalog, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	if mcol != nil {
		mcol.CatalogRoutes.Set(float64(catalog.Len()))
	}

	var notifier stops.Notifier = publisher.LogNotifier{}
	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSNotifier(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
		if err != nil {
			return fmt.Errorf("nats error: %w", err)
		}
		defer pub.Close()
		notifier = stops.Notifiers{pub, publisher.LogNotifier{}}
		log.Info().Str("url", cfg.NATSURL).Str("prefix", cfg.NATSSubjectPrefix).Msg("publishing stop events")
	}

	opts := []console.Option{console.WithNotifier(notifier), console.WithPrompt("> ")}
	if mcol != nil {
		opts = append(opts, console.WithMetrics(mcol.Console()), console.WithStopOptions(stops.WithMetrics(mcol.Stops())))
	}
	con := console.New(catalog, os.Stdout, opts...)

	if number := c.String("route"); number != "" {
		r, ok := catalog.Find(number)
		if !ok {
			return fmt.Errorf("unknown route %q", number)
		}
		con.Open(r)
	}

	done := make(chan error, 1)
	go func() { done <- con.Run(ctx, os.Stdin) }()

	select {
	case <-ctx.Done():
		log.Info().Msg("interrupted")
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			return err
		}
	}
	log.Info().Msg("shutdown complete")
	return nil
}

func loadCatalog(ctx context.Context, cfg *config.Config) (*routes.Catalog, error) {
	if cfg.DatabaseURL == "" {
		return routes.LoadCatalog(ctx, routes.StaticSource(nil))
	}
	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	defer sqlDB.Close()
	if err := db.Ping(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	catalog, err := routes.LoadCatalog(ctx, db.RouteSource{DB: sqlDB, Table: cfg.RoutesTable, Timeout: cfg.DBTimeout})
	if err != nil {
		return nil, err
	}
	if catalog.Len() == 0 {
		log.Warn().Str("table", cfg.RoutesTable).Msg("no routes in database, using built-in catalog")
		return routes.LoadCatalog(ctx, routes.StaticSource(nil))
	}
	log.Info().Int("routes", catalog.Len()).Str("table", cfg.RoutesTable).Msg("route catalog loaded")
	return catalog, nil
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return c.Publisher()
}
