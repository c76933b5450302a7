package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kandev/dbchat/internal/chat"
	"github.com/kandev/dbchat/internal/common/config"
	"github.com/kandev/dbchat/internal/common/httpmw"
	"github.com/kandev/dbchat/internal/common/logger"
	"github.com/kandev/dbchat/internal/common/tracing"
	gateways "github.com/kandev/dbchat/internal/gateway/websocket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat over WebSocket and the event bus",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadRuntime(v, cfgFile, false)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		return runServe(cmd.Context(), cfg, log)
	},
}

func runServe(parent context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Info("Starting dbchat...")

	ctx, stopSignals := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	// Cancelled by signals, the end of the chat service (/stop) or a failing
	// component.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := tracing.Init(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName); err != nil {
		log.Warn("Tracing disabled", zap.Error(err))
	}

	eventBus, cleanupBus, err := provideEventBus(cfg, log)
	if err != nil {
		return err
	}

	core, err := provideChat(cfg, log, eventBus, chat.NewBusReplier(eventBus.Bus), nil)
	if err != nil {
		_ = cleanupBus()
		return err
	}
	inboundSub, err := chat.SubscribeInbound(eventBus.Bus, core.service, log)
	if err != nil {
		_ = cleanupBus()
		return err
	}

	gateway, replies, err := provideGateway(ctx, log, core)
	if err != nil {
		_ = cleanupBus()
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.OtelTracing(serviceName, "/ws"))
	router.Use(httpmw.RequestLogger(log, serviceName))
	gateway.SetupRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gateway.Hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		err := core.service.Run(gctx)
		if gctx.Err() == nil {
			// Stopped by /stop. The hub closes every socket once ctx ends, so
			// the last replies must reach the sockets first.
			flushReplies(gctx, replies, cfg.Server.ShutdownTimeout, log)
		}
		cancel()
		return err
	})
	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, done := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}
		return nil
	})

	runErr := g.Wait()

	_ = inboundSub.Unsubscribe()
	core.close()
	if err := cleanupBus(); err != nil {
		log.Warn("Failed to close event bus", zap.Error(err))
	}
	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer done()
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}

	if runErr != nil {
		log.Error("dbchat stopped with error", zap.Error(runErr))
		return runErr
	}
	log.Info("dbchat stopped")
	return nil
}

func flushReplies(ctx context.Context, replies *gateways.ChatReplyBroadcaster, timeout time.Duration, log *logger.Logger) {
	ctx, done := context.WithTimeout(ctx, timeout)
	defer done()
	if err := replies.Flush(ctx); err != nil {
		log.Warn("Pending replies not flushed", zap.Error(err))
	}
}
