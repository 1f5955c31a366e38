package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/optibench/internal/database"
	"github.com/aristath/optibench/internal/modules/results"
	"github.com/aristath/optibench/internal/scenario"
	"github.com/aristath/optibench/internal/scheduler"
	"github.com/aristath/optibench/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the results and report over HTTP",
	Long: `Starts the HTTP server over the data directory: results index, run
catalog, generated report sources and a WebSocket stream of run progress.

When a scenario is given, POST /api/runs launches it, and its schedule
field (if any) runs it on a cron schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"Port to listen on (overrides OPTIBENCH_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	hub := server.NewHub(log)

	// The scenario is optional: without one the server is read-only.
	var orchestrator *scenario.Orchestrator
	schedule := ""
	if scenarioPath != "" {
		orchestrator, err = loadOrchestrator(cfg, log, hub.Sink())
		if err != nil {
			return err
		}
		schedule = orchestrator.Schedule()
	}

	db, err := database.New(database.Config{
		Path:    cfg.CatalogPath(),
		Profile: database.ProfileCatalog,
		Name:    "catalog",
	})
	if err != nil {
		return err
	}
	defer db.Close()

	catalog, err := results.NewCatalog(db.Conn(), log)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Log:          log,
		Config:       cfg,
		Catalog:      catalog,
		Orchestrator: orchestrator,
		Hub:          hub,
		Port:         cfg.Port,
		DevMode:      cfg.DevMode,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if schedule != "" && orchestrator != nil {
		sched := scheduler.New(log)
		if err := sched.AddJob(schedule, scenario.NewJob(orchestrator)); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down cleanly")
		os.Exit(1)
	}
	return nil
}
