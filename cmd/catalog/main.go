package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-catalog/config"
	"inventory-catalog/internal/service"
	"inventory-catalog/internal/util"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	if err := util.InitLogger(cfg.App.Env, cfg.App.LogLevel); err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return 1
	}
	defer util.SyncLogger()

	logger := util.GetLogger()

	tp, err := util.InitTracer("inventory-catalog")
	if err != nil {
		logger.Error("Failed to initialize tracer", zap.Error(err))
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := newApp(cfg, os.Stdout)
	// PersistentPostRunE is skipped when a command fails
	defer app.store.Close()

	root := newRootCmd(app)
	root.SetArgs(os.Args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		if app.started {
			fmt.Fprintln(os.Stderr, service.UserMessage(err, cfg.App.Debug))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}
