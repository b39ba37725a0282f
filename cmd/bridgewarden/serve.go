package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bridgewarden/bridgewarden/internal/audit"
	"github.com/bridgewarden/bridgewarden/internal/config"
	"github.com/bridgewarden/bridgewarden/internal/datadir"
	"github.com/bridgewarden/bridgewarden/internal/gateway"
	"github.com/bridgewarden/bridgewarden/internal/logger"
	"github.com/bridgewarden/bridgewarden/internal/metrics"
	"github.com/bridgewarden/bridgewarden/internal/quarantine"
	"github.com/bridgewarden/bridgewarden/internal/retention"
	"github.com/bridgewarden/bridgewarden/internal/rpc"
	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveLogLevel   string
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the BridgeWarden gateway (main command)",
	Long: `Start the BridgeWarden gateway with the given configuration.

The gateway speaks JSON-RPC 2.0 over stdin/stdout, one request per line.
A SIGHUP reloads the active policy snapshot without interrupting scans
already in flight; SIGINT/SIGTERM trigger a graceful shutdown.`,
	Run: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) {
	if err := config.LoadEnvOptional("./.env"); err != nil {
		fmt.Printf("failed to load .env: %v\n", err)
		os.Exit(1)
	}

	configPath := serveConfigPath
	if configPath == "" {
		configPath = "./config.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Printf("configuration validation failed:\n")
		for _, e := range errs {
			fmt.Printf("  - %v\n", e)
		}
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	log.Info("starting bridgewarden",
		logger.Field{Key: "version", Value: Version},
		logger.Field{Key: "git_commit", Value: GitCommit},
		logger.Field{Key: "config", Value: configPath},
		logger.Field{Key: "profile", Value: cfg.Gateway.Profile},
		logger.Field{Key: "network_enabled", Value: cfg.Network.Enabled})

	dir, err := datadir.New(cfg.Gateway.DataDir)
	if err != nil {
		log.Error("failed to resolve data directory", err)
		os.Exit(1)
	}
	if err := dir.EnsureAll(); err != nil {
		log.Error("failed to create data directory", err)
		os.Exit(1)
	}

	gw, err := gateway.New(cfg, dir, log)
	if err != nil {
		log.Error("failed to initialize gateway", err)
		os.Exit(1)
	}
	defer gw.Close()

	var sweeper *retention.Sweeper
	if cfg.Retention.Enabled {
		store := quarantine.NewStore(dir.Quarantine())
		auditLog := audit.NewLog(dir.AuditLogPath())
		sweeper = retention.NewSweeper(store, auditLog, time.Duration(cfg.Retention.WindowHours)*time.Hour, log)
		if err := sweeper.Start(cfg.Retention.CronSchedule); err != nil {
			log.Error("failed to start retention sweep", err)
			os.Exit(1)
		}
		log.Info("retention sweep started",
			logger.Field{Key: "window_hours", Value: cfg.Retention.WindowHours},
			logger.Field{Key: "schedule", Value: cfg.Retention.CronSchedule})
	}

	var reporter *metrics.Reporter
	if cfg.Metrics.Enabled {
		reporter = metrics.NewReporter(gw.Metrics(), log)
		if err := reporter.Start(cfg.Metrics.CronSchedule); err != nil {
			log.Error("failed to start metrics reporter", err)
			os.Exit(1)
		}
		log.Info("metrics reporter started",
			logger.Field{Key: "schedule", Value: cfg.Metrics.CronSchedule})
	}

	server := rpc.NewServer(os.Stdin, os.Stdout, log)
	rpc.RegisterTools(server, gw)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- server.Serve(ctx)
	}()

	log.Info("bridgewarden is running, awaiting JSON-RPC requests on stdin")

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				log.Info("received SIGHUP, reloading policy")
				if err := gw.ReloadPolicy(); err != nil {
					log.Error("policy reload failed", err)
				} else {
					log.Info("policy reload complete")
				}
				continue
			}

			log.Info("received shutdown signal", logger.Field{Key: "signal", Value: sig.String()})
			cancel()
			if sweeper != nil {
				sweeper.Stop()
			}
			if reporter != nil {
				reporter.Stop()
			}
			log.Info("bridgewarden stopped gracefully")
			return

		case err := <-serveErrCh:
			if err != nil {
				log.Error("rpc server stopped with an error", err)
			}
			if sweeper != nil {
				sweeper.Stop()
			}
			if reporter != nil {
				reporter.Stop()
			}
			log.Info("bridgewarden stopped (stdin closed)")
			return
		}
	}
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	serveCmd.Flags().StringVarP(&serveLogLevel, "log-level", "l", "", "Override log level (debug, info, warn, error)")
}
