package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relayforge/relay/internal/engine"
	"github.com/relayforge/relay/pkg/config"
	"github.com/relayforge/relay/pkg/logger"
	"github.com/relayforge/relay/pkg/metrics"
	"github.com/relayforge/relay/pkg/tracing"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "relay",
		Short: "Relay - High-performance in-process message routing toolkit",
		Long: `Relay is a high-performance in-process message routing toolkit.
This binary drives the exchange pooling core: it runs a configurable
multi-consumer workload against pooled or prototype exchange factories and
reports utilization statistics.`,
	}

	root.AddCommand(versionCommand())
	root.AddCommand(validateCommand())
	root.AddCommand(runCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Relay v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func validateCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewDefaultConfig()
			if err := config.Load(configFile, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Printf("Configuration %s is valid\n", configFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "relay.yaml", "Configuration file")
	return cmd
}

func runCommand() *cobra.Command {
	var (
		configFile string
		consumers  int
		exchanges  int
		capacity   int
		noPool     bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the exchange pooling workload and report statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewDefaultConfig()
			if configFile != "" {
				if err := config.Load(configFile, cfg); err != nil {
					return err
				}
			}

			// Flag overrides
			if cmd.Flags().Changed("consumers") {
				cfg.Engine.Consumers = consumers
			}
			if cmd.Flags().Changed("exchanges") {
				cfg.Engine.Exchanges = exchanges
			}
			if cmd.Flags().Changed("capacity") {
				cfg.Pool.Capacity = capacity
			}
			if noPool {
				cfg.Pool.Enabled = false
			}

			if err := logger.Init(logger.Config{
				Level:       cfg.Logging.Level,
				Development: cfg.Logging.Development,
				Encoding:    cfg.Logging.Encoding,
			}); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.Tracing.Enabled {
				tcfg := tracing.DefaultConfig()
				tcfg.ServiceVersion = version
				tcfg.SamplingRate = cfg.Tracing.SamplingRate
				if cfg.Tracing.Exporter != "" {
					tcfg.Exporter = cfg.Tracing.Exporter
				}
				if err := tracing.Init(tcfg); err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := tracing.Shutdown(shutdownCtx); err != nil {
						logger.Error("failed to shut down tracing", zap.Error(err))
					}
				}()
			}

			eng, err := engine.New(cfg, nil)
			if err != nil {
				return err
			}

			if cfg.Metrics.Enabled {
				prometheus.MustRegister(metrics.NewPoolCollector(eng.Manager()))
				go serveMetrics(cfg.Metrics.Address)
			}

			if err := eng.Start(); err != nil {
				return err
			}
			defer func() {
				if err := eng.Stop(); err != nil {
					logger.Error("failed to stop engine", zap.Error(err))
				}
			}()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			report, err := eng.Run(ctx)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file (defaults used when omitted)")
	cmd.Flags().IntVar(&consumers, "consumers", 0, "Number of concurrent consumers")
	cmd.Flags().IntVar(&exchanges, "exchanges", 0, "Exchanges processed per worker")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "Per-consumer pool capacity")
	cmd.Flags().BoolVar(&noPool, "no-pool", false, "Disable pooling, allocate every exchange fresh")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Run timeout")
	return cmd
}

func serveMetrics(address string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server failed", zap.Error(err))
	}
}
