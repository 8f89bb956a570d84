package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"leasemeter/internal/aggregator"
	"leasemeter/internal/config"
	"leasemeter/internal/inventory"
	"leasemeter/internal/logger"
	"leasemeter/internal/report"
	"leasemeter/internal/routeros"
	"leasemeter/internal/session"
	"leasemeter/internal/types"
	"leasemeter/internal/version"

	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	routersFile := flag.String("routers", "", "Router list CSV (label,address), overrides inventory.routers_file")
	routersHeader := flag.String("routers-header", "", "First row of the router list: auto, present or absent")
	outputFile := flag.String("output", "", "Report CSV path, overrides inventory.output_file")
	concurrency := flag.Int("concurrency", 0, "Maximum concurrent router sessions, overrides inventory.concurrency")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *routersFile != "" {
		cfg.Inventory.RoutersFile = *routersFile
	}
	if *routersHeader != "" {
		cfg.Inventory.RoutersHeader = *routersHeader
	}
	if *outputFile != "" {
		cfg.Inventory.OutputFile = *outputFile
	}
	if *concurrency > 0 {
		cfg.Inventory.Concurrency = *concurrency
	}
	if *debug {
		cfg.Log.Level = "debug"
	}

	// Initialize logger
	log, err := logger.New(&cfg.Log)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()
	log, _ = logger.ForRun(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Run failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	header, err := report.ParseHeaderMode(cfg.Inventory.RoutersHeader)
	if err != nil {
		return err
	}
	routers, err := report.LoadRouters(cfg.Inventory.RoutersFile, header)
	if err != nil {
		return err
	}
	log.Info("Loaded router list",
		zap.String("file", cfg.Inventory.RoutersFile),
		zap.Int("routers", len(routers)))

	connector, err := session.NewSSHConnector(&cfg.SSH, log.Named("ssh"))
	if err != nil {
		return fmt.Errorf("failed to create ssh connector: %w", err)
	}

	inspector := inventory.NewInspector(
		connector,
		routeros.NewParser(),
		aggregator.New(cfg.Inventory.ReservedAddresses),
		log.Named("inspector"),
	)
	manager := inventory.NewManager(inspector, cfg.Inventory.Concurrency, &cfg.Retry, log.Named("inventory"))

	assembler, summary := manager.Run(ctx, routers)
	log.Info("Inventory finished",
		zap.Int("routers", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("unreachable", summary.Unreachable),
		zap.Int("malformed", summary.Malformed),
		zap.Int("rows", summary.Rows),
		zap.Duration("duration", summary.Duration))

	err = report.WriteFile(cfg.Inventory.OutputFile, assembler.Rows())
	if errors.Is(err, types.ErrNoRows) {
		log.Warn("No DHCP subnet usage collected, report not written")
		return nil
	}
	if err != nil {
		return err
	}

	log.Info("Report written", zap.String("file", cfg.Inventory.OutputFile))
	return nil
}
