package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"go.uber.org/zap"

	"traffic-reporter/config"
	"traffic-reporter/di"
	"traffic-reporter/logger"
)

const SERVICE_NAME = "traffic-reporter"

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, SERVICE_NAME)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("[MAIN] exiting with error", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer container.Close()

	log.Info("[MAIN] starting report dispatcher")
	container.ReportDispatcher.Start(ctx)
	defer container.ReportDispatcher.Stop()

	if cfg.Collector.Enabled {
		log.Info("[MAIN] starting traffic collector", zap.Duration("interval", cfg.Collector.Interval))
		container.TrafficCollectorService.StartPeriodicJob(ctx, cfg.Collector.Interval)
	}

	log.Info("[MAIN] starting server")
	return container.TrafficHttpServer.Run(ctx)
}
