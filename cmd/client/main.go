package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"robots/internal/client"
	"robots/internal/shared/configs"
	"robots/internal/shared/logger"
)

func main() {
	if err := configs.LoadDotEnv(); err != nil {
		logger.Warningf("reading .env: %v", err)
	}
	cfg, err := configs.LoadClient(os.Args[1:])
	if err != nil {
		logger.Fatalf("configuration: %v", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		logger.Fatalf("log level: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	displayAddr, err := net.ResolveUDPAddr("udp", cfg.DisplayAddress)
	if err != nil {
		logger.Fatalf("display address %q: %v", cfg.DisplayAddress, err)
	}
	display, err := net.ListenPacket("udp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		logger.Fatalf("display socket: %v", err)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", cfg.ServerAddress)
	if err != nil {
		logger.Fatalf("server %q: %v", cfg.ServerAddress, err)
	}
	logger.Infof("connected to %s, display at %s", conn.RemoteAddr(), displayAddr)

	relay := client.NewRelay(cfg.PlayerName, conn, display, displayAddr)
	if err := relay.Run(ctx); err != nil && !errors.Is(err, client.ErrServerClosed) {
		logger.Fatalf("relay: %v", err)
	}
	logger.Info("client stopped")
}
