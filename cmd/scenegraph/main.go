package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/scenegraph/internal/app"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a .yaml or .toml config file")
	demo := flag.Bool("demo", true, "populate the scene with the demo world")
	flag.Parse()

	application, err := injector.InitializeApplication(injector.ConfigPath(*configPath))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing:", err)
		os.Exit(1)
	}

	err = run(application, *demo)
	_ = application.Logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(application *injector.Application, demo bool) error {
	logger, rt := application.Logger, application.Runtime

	if demo {
		if _, err := app.BuildDemo(rt.Scene(), logger); err != nil {
			logger.Error("demo setup failed", log.Error(err))
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("scenegraph starting", log.String("scene", rt.Scene().Name()))
	if err := rt.Run(ctx); err != nil {
		logger.Error("runtime failed", log.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
