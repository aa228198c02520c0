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

	"github.com/wikiboard/wikimod/moderation"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
)

var cmdMaintain = &cli.Command{
	Name:  "maintain",
	Usage: "run the cleanup job once, or on a cron schedule",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "schedule",
			Usage:   "cron expression (eg, '@hourly' or '*/15 * * * *'); runs once and exits if not set",
			EnvVars: []string{"MODCTL_MAINTAIN_SCHEDULE"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for prometheus metrics (scheduled mode only)",
			Value:   ":2481",
			EnvVars: []string{"MODCTL_METRICS_LISTEN"},
		},
	},
	Action: runMaintain,
}

func runMaintain(cctx *cli.Context) error {
	logger := slog.Default().With("system", "maintain")

	shutdownOTEL, err := setupOTEL(cctx)
	if err != nil {
		return err
	}
	defer shutdownOTEL()

	eng, err := openEngine(cctx)
	if err != nil {
		return err
	}

	schedule := cctx.String("schedule")
	if schedule == "" {
		report, err := eng.RunMaintenance(cctx.Context)
		if report != nil {
			if perr := printJSON(report); perr != nil {
				return perr
			}
		}
		return err
	}

	// Trap SIGINT to trigger a shutdown.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	s := newMaintenanceScheduler(eng, logger)
	if err := s.Start(schedule); err != nil {
		return err
	}

	metricsErr := make(chan error, 1)
	go func() {
		logger.Info("starting metrics endpoint", "listen", cctx.String("metrics-listen"))
		metricsErr <- runMetrics(cctx.String("metrics-listen"))
	}()

	logger.Info("startup complete", "schedule", schedule)
	select {
	case <-signals:
		logger.Info("received shutdown signal")
	case err := <-metricsErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", "err", err)
		}
	}

	ctx := s.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("timed out waiting for running maintenance pass")
	}
	logger.Info("shutting down")
	return nil
}

func runMetrics(listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, mux)
}

type maintenanceScheduler struct {
	cron   *cron.Cron
	engine *moderation.Engine
	logger *slog.Logger
}

func newMaintenanceScheduler(eng *moderation.Engine, logger *slog.Logger) *maintenanceScheduler {
	// a slow pass is skipped over rather than run concurrently with the next one
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return &maintenanceScheduler{
		cron:   c,
		engine: eng,
		logger: logger,
	}
}

func (s *maintenanceScheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.runPass); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stops scheduling; the returned context is done once any running pass has finished.
func (s *maintenanceScheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *maintenanceScheduler) runPass() {
	if _, err := s.engine.RunMaintenance(context.Background()); err != nil {
		s.logger.Error("maintenance pass failed", "err", err)
	}
}
