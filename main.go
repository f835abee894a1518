package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/soocke/carton-vision/app"
	"github.com/soocke/carton-vision/config"
	"github.com/soocke/carton-vision/debug"
	"github.com/soocke/carton-vision/domain/capture"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to the JSON config file")
	headless := flag.Bool("headless", false, "run the detection loop without a window")
	source := flag.String("source", "live", "headless source: live, a device index, or a video file path")
	debugFlag := flag.Bool("debug", false, "enable debug logging and runtime instrumentation")
	flag.Parse()

	config.LoadDotEnv()
	cfg, cfgErr := config.Load(*cfgPath)
	if *debugFlag {
		cfg.Debug = true
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level)
	if cfgErr != nil {
		logger.Warn("config load failed, using defaults", "path", *cfgPath, "error", cfgErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Debug {
		debug.Start(ctx, logger)
	}

	c, err := app.BuildContainer(cfg, *cfgPath, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	if *headless {
		if err := app.RunHeadless(ctx, c, capture.ParseSelector(*source, cfg.DeviceID)); err != nil {
			logger.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	application := app.NewApp(c)
	application.Start()
}
