package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"railpulse/internal/api"
	"railpulse/internal/config"
	"railpulse/internal/db"
	"railpulse/internal/eta"
	"railpulse/internal/irctc"
	"railpulse/internal/iri"
	"railpulse/internal/mapbox"
	"railpulse/internal/metrics"
	"railpulse/internal/redbus"
	"railpulse/internal/upstream"
	"railpulse/internal/wimt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

// single known-good train page for a quick end to end sync
var testSyncURLs = []string{"https://indiarailinfo.com/train/7539"}

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	app := &cli.App{
		Name:  "railpulse",
		Usage: "live train position and ETA service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: cfg.Server.Addr,
						Usage: "listen target for the web server",
					},
				},
				Action: func(c *cli.Context) error {
					cfg.Server.Addr = c.String("listen")
					return runServer(c.Context, cfg, logger)
				},
			},
			{
				Name:  "sync-stations",
				Usage: "refresh the station directory from train timetable pages",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "test",
						Usage: "sync a single train page instead of the URLs file",
					},
				},
				Action: func(c *cli.Context) error {
					return runSync(c.Context, cfg, logger, c.Bool("test"))
				},
			},
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Fatal().Err(err).Send()
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if os.Getenv("LOG_FORMAT") == "json" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(lvl).With().Timestamp().Str("service", "railpulse").Logger()
}

func upstreamOptions(cfg config.UpstreamConfig, m *metrics.Collector) upstream.Options {
	return upstream.Options{
		Timeout:  cfg.Timeout,
		ProxyURL: cfg.ProxyURL,
		Limiter:  upstream.NewLimiter(cfg.RatePerSecond, cfg.Burst),
		Metrics:  m,
	}
}

// liveSource picks the feed the ranker estimates from.
func liveSource(cfg *config.Config, rb *redbus.Client, opts upstream.Options) (eta.ProgressFetcher, error) {
	switch cfg.Estimator.LiveSource {
	case "", "redbus":
		return rb, nil
	case "wimt":
		return wimt.NewAPIClient(cfg.Upstream.WIMTBaseURL, opts), nil
	}
	return nil, fmt.Errorf("unknown LIVE_SOURCE %q", cfg.Estimator.LiveSource)
}

func runServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	dbConn, err := db.OpenDatabase(cfg.Database, db.DefaultDatabaseOptions(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing database")
		} else {
			logger.Info().Msg("database connection closed")
		}
	}()

	m := metrics.NewCollector()
	opts := upstreamOptions(cfg.Upstream, m)

	rb := redbus.NewClient(cfg.Upstream.RedbusBaseURL, opts)
	feed, err := liveSource(cfg, rb, opts)
	if err != nil {
		return err
	}
	nextModel, err := eta.ParseSpeedModel(cfg.Estimator.NextTrainSpeedModel)
	if err != nil {
		return fmt.Errorf("NEXT_TRAIN_SPEED_MODEL: %w", err)
	}
	if cfg.Upstream.MapboxToken == "" {
		logger.Warn().Msg("MAPBOX_ACCESS_TOKEN not set, nearby station search will fail")
	}

	ranker := eta.NewRanker(feed,
		eta.WithConcurrency(cfg.Estimator.Concurrency),
		eta.WithNextTrainModel(nextModel),
		eta.WithLogger(logger),
		eta.WithMetrics(m),
	)

	logger.Info().
		Str("live_source", cfg.Estimator.LiveSource).
		Str("next_train_model", nextModel.String()).
		Int("concurrency", cfg.Estimator.Concurrency).
		Msg("estimator configured")

	srv := api.NewServer(cfg.Server, api.Deps{
		Search:   rb,
		Ranker:   ranker,
		Feed:     rb,
		Charts:   irctc.NewClient(cfg.Upstream.IRCTCBaseURL, opts),
		Nearby:   mapbox.NewClient(cfg.Upstream.MapboxBaseURL, cfg.Upstream.MapboxToken, opts),
		Stations: db.NewStore(dbConn),
		Metrics:  m,
	}, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received, cleaning up...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("application stopped")
	return nil
}

func runSync(ctx context.Context, cfg *config.Config, logger zerolog.Logger, test bool) error {
	urls := testSyncURLs
	if !test {
		var err error
		urls, err = iri.LoadURLs(cfg.Syncer.URLsFile)
		if err != nil {
			return err
		}
	}
	if len(urls) == 0 {
		logger.Info().Msg("no train urls configured for sync")
		return nil
	}

	dbConn, err := db.OpenDatabase(cfg.Database, db.DefaultDatabaseOptions(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()

	store := db.NewStore(dbConn)
	client := iri.NewClient(upstream.NewLimiter(0.1, 15), cfg.Upstream.Timeout)
	saver := iri.NewSaver(store, logger, metrics.NewCollector())

	logger.Info().Int("trains", len(urls)).Msg("running station sync")
	if err := saver.ExecuteSyncCycle(ctx, client, int(cfg.Syncer.Concurrency), urls); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("station sync interrupted")
			return nil
		}
		return fmt.Errorf("station sync failed: %w", err)
	}

	n, err := store.CountStations(ctx)
	if err != nil {
		return err
	}
	logger.Info().Int("stations", n).Msg("station sync completed")
	return nil
}
