package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alfredjeanlab/taskdeps/internal/config"
	"github.com/alfredjeanlab/taskdeps/internal/events"
	"github.com/alfredjeanlab/taskdeps/internal/server"
	"github.com/alfredjeanlab/taskdeps/internal/store/postgres"
	tasksync "github.com/alfredjeanlab/taskdeps/internal/sync"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:               "serve",
	Short:             "Start the taskdeps HTTP and gRPC servers",
	GroupID:           "system",
	Args:              cobra.NoArgs,
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("error closing store", "err", err)
			}
		}()

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (TASKDEPS_NATS_URL not set)")
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("error closing publisher", "err", err)
			}
		}()

		tasksServer := server.NewTasksServer(store, publisher, server.WithLogger(logger))
		grpcServer := server.NewGRPCServer(tasksServer)
		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           tasksServer.NewHTTPHandler(cfg.Metrics),
			ReadHeaderTimeout: 10 * time.Second,
		}

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			return grpcServer.Serve(lis)
		})
		g.Go(func() error {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr, "metrics", cfg.Metrics)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		if scheduler := newSyncScheduler(ctx, cfg, store, logger); scheduler != nil {
			g.Go(func() error { return scheduler.Run(ctx) })
		}
		g.Go(func() error {
			<-ctx.Done()
			logger.Info("shutting down")
			grpcServer.GracefulStop()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})

		err = g.Wait()
		logger.Info("shutdown complete")
		return err
	},
}

// newSyncScheduler returns nil when no backup destination is configured.
func newSyncScheduler(ctx context.Context, cfg *config.Config, store *postgres.PostgresStore, logger *slog.Logger) *tasksync.Scheduler {
	if !cfg.SyncEnabled() {
		return nil
	}
	var dests []tasksync.Destination
	if cfg.SyncS3Bucket != "" {
		d, err := tasksync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, d)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, tasksync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}
	if len(dests) == 0 {
		return nil
	}
	logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
	return tasksync.NewScheduler(store, dests, cfg.SyncInterval, logger)
}
