package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"robots/internal/server"
	"robots/internal/shared/configs"
	"robots/internal/shared/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := configs.LoadDotEnv(); err != nil {
		logger.Warningf("reading .env: %v", err)
	}
	cfg, err := configs.LoadServer(os.Args[1:])
	if err != nil {
		logger.Fatalf("configuration: %v", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		logger.Fatalf("log level: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := server.NewEngine(server.EngineConfig{
		ServerName:    cfg.ServerName,
		PlayersCount:  uint8(cfg.PlayersCount),
		Rules:         cfg.Rules(),
		InitialBlocks: uint16(cfg.InitialBlocks),
		Seed:          uint32(cfg.Seed),
	})
	scheduler := server.NewScheduler(engine, server.TickerGen{}, cfg.TurnDuration())
	listener := server.NewListener(scheduler, server.UUIDGen{})

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	started := make(chan struct{})
	g.Go(func() error { return scheduler.Run(ctx, started) })
	<-started

	g.Go(func() error { return listener.Serve(ctx, ln) })

	if cfg.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		r := server.CreateServer(cfg.AllowedOrigins)
		server.NewStatusHandler(scheduler, listener).Register(r)
		srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

		g.Go(func() error {
			logger.Infof("http surface on %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Infof("server %q waiting for %d players on a %dx%d board", cfg.ServerName, cfg.PlayersCount, cfg.SizeX, cfg.SizeY)
	if err := g.Wait(); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
	logger.Info("server stopped")
}
