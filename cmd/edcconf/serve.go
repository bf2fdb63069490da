package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/botswana-harvard/edc-configuration/internal/server"
	edcsync "github.com/botswana-harvard/edc-configuration/internal/sync"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the configuration HTTP and gRPC servers",
	Long: `Start the configuration HTTP and gRPC servers.

When EDC_APP_CONFIG is set the tables are prepared from it before the
servers start listening.`,
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openLocal()
		if err != nil {
			return err
		}
		defer func() {
			if err := env.Close(); err != nil {
				logger.Error("error closing store", "err", err)
			}
		}()
		cfg := env.cfg
		if cfg.NATSURL != "" {
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			logger.Info("events disabled (EDC_NATS_URL not set)")
		}

		if cfg.AppConfig != "" {
			report, err := prepare(cmd.Context(), env, cfg.AppConfig)
			if err != nil {
				return err
			}
			logger.Info("configuration prepared", "created", report.Created(), "updated", report.Updated())
		}

		cs := server.NewConfigurationServer(env.conf, env.publisher, logger)
		grpcServer := server.NewGRPCServer(cs, cfg.AuthToken)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           cs.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		var scheduler *edcsync.Scheduler
		if cfg.SyncInterval > 0 {
			dests, err := syncDestinations(context.Background(), cfg)
			if err != nil {
				logger.Error("failed to create sync destinations", "err", err)
			}
			if len(dests) > 0 {
				scheduler = edcsync.NewScheduler(env.store, dests, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("sync scheduler started", "interval", cfg.SyncInterval, "destinations", len(dests))
			}
		}

		logger.Info("configuration server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"use_tz", cfg.Time.UseTZ,
			"time_zone", cfg.Time.Location.String(),
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	},
}
