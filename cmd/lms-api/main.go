package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandipan-das-sd/lms/internal/config"
	"github.com/sandipan-das-sd/lms/internal/logger"
	"github.com/sandipan-das-sd/lms/internal/mockapi"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(logger.Config{Development: cfg.Log.Development})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	app, _ := mockapi.New(mockapi.Config{
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		RateLimitPerMin: cfg.Server.RateLimitPerMin,
		UploadDir:       cfg.Server.UploadDir,
		PublicBase:      fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
		JWTSecret:       cfg.Server.JWTSecret,
		AccessTTL:       cfg.AccessTTL,
		RefreshTTL:      cfg.RefreshTTL,
	}, log)

	go func() {
		log.Infow("starting dev api", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalw("listen failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown requested")
	_ = app.Shutdown()
	log.Info("shutdown completed")
}
