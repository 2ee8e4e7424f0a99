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

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devsim/internal/chat"
	"github.com/alfredjeanlab/devsim/internal/config"
	"github.com/alfredjeanlab/devsim/internal/events"
	"github.com/alfredjeanlab/devsim/internal/server"
	"github.com/alfredjeanlab/devsim/internal/store/postgres"
	devsync "github.com/alfredjeanlab/devsim/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the devsim HTTP and gRPC servers",
	GroupID: "system",
	// No client connection is needed to serve.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

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
			logger.Info("events disabled (DEVSIM_NATS_URL not set)")
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("error closing publisher", "err", err)
			}
		}()

		opts := []server.Option{server.WithLogger(logger)}

		chatSvc, closeChat, err := newChatService(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closeChat()
		if chatSvc != nil {
			opts = append(opts, server.WithChat(chatSvc))
		}

		scheduler := newSyncScheduler(cfg, store, logger)
		if scheduler != nil {
			opts = append(opts, server.WithSaveHook(func(int64) { scheduler.Trigger() }))
		}

		graphServer := server.NewGraphServer(store, publisher, opts...)
		grpcServer := server.NewGRPCServer(graphServer)

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
			Handler:           graphServer.NewHTTPHandler(cfg.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		if scheduler != nil {
			scheduler.Start()
			logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
		}

		logger.Info("devsim server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"chat", chatSvc != nil,
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		graphServer.Shutdown()

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

		logger.Info("shutdown complete")
		return nil
	},
}

// newChatService builds the assistant from cfg. It returns a nil service
// when no API key is configured. The returned close func is never nil.
func newChatService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*chat.Service, func(), error) {
	noop := func() {}
	if cfg.GenAIAPIKey == "" {
		logger.Info("chat disabled (DEVSIM_GENAI_API_KEY not set)")
		return nil, noop, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	completer, err := chat.NewGenAICompleter(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
	if err != nil {
		return nil, noop, err
	}
	guarded := chat.NewBreakerCompleter(completer, chat.DefaultBreakerSettings(), logger)

	switch cfg.ChatHistory {
	case config.HistoryNATS:
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("devsim-chat"), nats.MaxReconnects(-1))
		if err != nil {
			return nil, noop, fmt.Errorf("connecting to NATS for chat history: %w", err)
		}
		hist, err := chat.NewKVHistory(ctx, nc, chat.DefaultBucket, cfg.ChatHistoryLimit)
		if err != nil {
			nc.Close()
			return nil, noop, err
		}
		logger.Info("chat enabled", "model", cfg.GenAIModel, "history", "nats", "bucket", chat.DefaultBucket)
		return chat.NewService(guarded, hist), nc.Close, nil
	default:
		logger.Info("chat enabled", "model", cfg.GenAIModel, "history", "memory")
		return chat.NewService(guarded, chat.NewMemoryHistory(cfg.ChatHistoryLimit)), noop, nil
	}
}

// newSyncScheduler returns nil when sync is disabled or no destination
// could be set up.
func newSyncScheduler(cfg *config.Config, src devsync.Source, logger *slog.Logger) *devsync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}
	var dests []devsync.Destination

	if cfg.SyncS3Bucket != "" {
		s3Dest, err := devsync.NewS3Destination(
			context.Background(),
			cfg.SyncS3Bucket,
			cfg.SyncS3Key,
			cfg.SyncS3Region,
			cfg.SyncS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}

	if cfg.SyncGitRepo != "" {
		dests = append(dests, devsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}

	if len(dests) == 0 {
		return nil
	}
	return devsync.NewScheduler(src, dests, cfg.SyncInterval, logger)
}
