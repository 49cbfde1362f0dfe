package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/park285/cheese-coach/internal/adapter/coachcli"
	"github.com/park285/cheese-coach/internal/adapter/coachpresenter"
	"github.com/park285/cheese-coach/internal/chessbuilder"
	appcfg "github.com/park285/cheese-coach/internal/config"
	"github.com/park285/cheese-coach/internal/obslog"
)

func main() {
	configPath := flag.String("config", "", "config file (overrides "+appcfg.ConfigFileEnv+")")
	text := flag.Bool("text", false, "print plain text instead of JSON lines")
	flag.Parse()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(appcfg.ConfigFileEnv))
	}
	cfg, err := appcfg.LoadFile(path)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := obslog.Init(cfg.LogOptions())
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	deps, err := chessbuilder.New(cfg, logger)
	if err != nil {
		logger.Fatal("coach init error", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("shutdown error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver := coachcli.NewDriver(deps.Service, coachpresenter.NewPresenter(os.Stdout, *text), logger)
	logger.Info("move coach ready",
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
		zap.Int("oracle_budget", cfg.OracleBudget),
	)
	if err := driver.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		logger.Error("input loop stopped", zap.Error(err))
	}
}
