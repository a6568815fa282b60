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

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/NescAdmin/nesc-planering/internal/application"
	"github.com/NescAdmin/nesc-planering/internal/config"
	httptransport "github.com/NescAdmin/nesc-planering/internal/http"
	"github.com/NescAdmin/nesc-planering/internal/logging"
	"github.com/NescAdmin/nesc-planering/internal/metrics"
	"github.com/NescAdmin/nesc-planering/internal/persistence"
	"github.com/NescAdmin/nesc-planering/internal/persistence/memory"
	"github.com/NescAdmin/nesc-planering/internal/persistence/sqlite"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a JSON or YAML config file")
	return cmd
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.NewLogger(os.Stdout, cfg.Logging.Level)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := uuid.NewString
	now := time.Now
	m := metrics.New()

	planning := application.NewPlanningService(store, idGenerator, cfg.Planning.HorizonWeeks, cfg.Planning.BreakMinutes, logger)
	allocations := application.NewAllocationService(store, idGenerator, now, cfg.Planning.BreakMinutes, logger)
	reports := application.NewReportService(store, now, cfg.Planning.BreakMinutes, logger)
	directory := application.NewDirectoryService(store, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Planning:    httptransport.NewPlanningHandler(planning, m, logger),
		Allocations: httptransport.NewAllocationHandler(allocations, logger),
		Reports:     httptransport.NewReportHandler(reports, logger),
		Directory:   httptransport.NewDirectoryHandler(directory, logger),
		Metrics:     m.Handler(),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequestMetrics(m),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("planner API listening", "addr", server.Addr, "storage", cfg.Storage.Driver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (persistence.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.NewStore(), nil
	default:
		return sqlite.Open(ctx, cfg.DSN)
	}
}
