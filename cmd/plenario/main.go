package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/coolbeans/plenario/pkg/camara"
	"github.com/coolbeans/plenario/pkg/config"
	"github.com/coolbeans/plenario/pkg/consolidate"
	"github.com/coolbeans/plenario/pkg/dataset"
	"github.com/coolbeans/plenario/pkg/export"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "0.1.0"

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "plenario",
		Short: "Chamber of Deputies voting-record pipeline",
		Long: `Plenario collects roll-call votes from the Chamber of Deputies
open-data API and consolidates them into analysis-ready tables.

It produces:
  - A yearly JSON dataset of roll calls, votes, orientations and subjects
  - A consolidated roll-call table with vote and orientation totals
  - A per-legislator vote table with party-orientation fidelity
  - CSV and SQLite exports of both tables`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zapConfig := zap.NewProductionConfig()
			if verbose {
				zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = zapConfig.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(collectCmd())
	rootCmd.AddCommand(consolidateCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(subjectsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func collectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect roll-call data from the Chamber of Deputies API",
		Long: `Fetch roll calls, votes, orientations and proposition subjects for the
requested years and write them as the yearly JSON dataset.

Years already recorded in the collect manifest are skipped unless --force
is given. Items that keep failing after retries are skipped and counted;
a year fails only when its roll-call listing cannot be fetched.

Examples:
  plenario collect --years 2019
  plenario collect --start-year 2018 --end-year 2022 --workers 2
  plenario collect --years 2020 --dry-run
  plenario collect --years 2020 --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			force, _ := cmd.Flags().GetBool("force")
			formatStr, _ := cmd.Flags().GetString("format")
			if cmd.Flags().Changed("metrics-addr") {
				cfg.API.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
			}

			years := cfg.CollectYears()
			if !cmd.Flags().Changed("years") &&
				(cmd.Flags().Changed("start-year") || cmd.Flags().Changed("end-year")) {
				startYear, _ := cmd.Flags().GetInt("start-year")
				endYear, _ := cmd.Flags().GetInt("end-year")
				if endYear < startYear {
					return fmt.Errorf("--end-year must not precede --start-year")
				}
				years = years[:0]
				for year := startYear; year <= endYear; year++ {
					years = append(years, year)
				}
			}

			var metrics *camara.Metrics
			if cfg.API.MetricsAddr != "" {
				registry := prometheus.NewRegistry()
				metrics = camara.NewMetrics(registry)
				server := camara.StartMetricsServer(cfg.API.MetricsAddr, registry, logger)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer shutdownCancel()
					_ = server.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving metrics on %s/metrics\n", cfg.API.MetricsAddr)
			}

			client := camara.NewClient(cfg.API.ClientConfig(), logger, metrics)
			collector, err := camara.NewCollector(client, camara.CollectorConfig{
				DataDir: cfg.DataDir,
				Workers: cfg.Workers,
				DryRun:  dryRun,
				Force:   force,
			}, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			fmt.Printf("Collecting %d years into %s\n", len(years), cfg.DataDir)
			report, err := collector.Run(ctx, years)
			if err != nil {
				return err
			}

			switch formatStr {
			case "json":
				fmt.Println(camara.FormatCollectReportJSON(report))
			case "text":
				fmt.Print(camara.FormatCollectReport(report))
			default:
				return fmt.Errorf("unknown format: %s (use text or json)", formatStr)
			}
			return nil
		},
	}

	cmd.Flags().String("data-dir", "", "Dataset directory (default from config)")
	cmd.Flags().StringSlice("years", nil, "Years to collect, as a list or range (2019,2021 or 2018-2022)")
	cmd.Flags().Int("start-year", config.DefaultStartYear, "First year of the collection window")
	cmd.Flags().Int("end-year", config.DefaultEndYear, "Last year of the collection window")
	cmd.Flags().Int("workers", 0, "Concurrent year workers (default from config)")
	cmd.Flags().Bool("dry-run", false, "Plan the collection without network calls")
	cmd.Flags().Bool("force", false, "Re-collect years already in the manifest")
	cmd.Flags().String("metrics-addr", "", "Expose prometheus counters on this address while collecting")
	cmd.Flags().StringP("format", "f", "text", "Report format (text, json)")

	return cmd
}

func consolidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Consolidate the yearly dataset into analysis tables",
		Long: `Read the yearly JSON dataset and build the two consolidated tables:
one row per valid roll call with vote and orientation totals, and one row
per individual vote with the party orientation it faced.

Roll calls missing any required collection are dropped and counted. A year
whose files are unavailable is excluded from the output; the run fails only
when every requested year is unavailable.

Examples:
  plenario consolidate --data-dir dados --output-dir saida
  plenario consolidate --years 2018-2022 --format both --stats
  plenario consolidate --watch --format sqlite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			formatStr, _ := cmd.Flags().GetString("format")
			showStats, _ := cmd.Flags().GetBool("stats")
			watch, _ := cmd.Flags().GetBool("watch")

			switch formatStr {
			case export.FormatCSV, export.FormatSQLite, export.FormatBoth:
			default:
				return fmt.Errorf("unknown format: %s (use csv, sqlite or both)", formatStr)
			}

			runOnce := func(ctx context.Context) error {
				started := time.Now()
				loader := dataset.NewDirLoader(cfg.DataDir)
				result, err := consolidate.Run(ctx, loader, consolidate.Options{
					Years:   cfg.Years,
					Workers: cfg.Workers,
					Logger:  logger,
				})
				if err != nil {
					return err
				}
				written, err := export.Write(cfg.OutputDir, formatStr, result.RollCalls, result.Votes)
				if err != nil {
					return err
				}
				fmt.Printf("Consolidated %d roll calls and %d votes in %v\n",
					len(result.RollCalls), len(result.Votes),
					time.Since(started).Round(time.Millisecond))
				for _, path := range written {
					fmt.Printf("  wrote %s\n", path)
				}
				if showStats {
					fmt.Print(consolidate.FormatReport(result.Report))
				}
				return nil
			}

			ctx, cancel := signalContext()
			defer cancel()

			if !watch {
				return runOnce(ctx)
			}

			fmt.Printf("Watching %s for dataset changes (Ctrl-C to stop)\n", cfg.DataDir)
			return consolidate.WatchDataset(ctx, cfg.DataDir, consolidate.DefaultDebounce, logger, func() {
				if err := runOnce(ctx); err != nil {
					fmt.Fprintf(os.Stderr, "consolidation failed: %v\n", err)
				}
			})
		},
	}

	cmd.Flags().String("data-dir", "", "Dataset directory (default from config)")
	cmd.Flags().StringSlice("years", nil, "Years to consolidate (empty processes every collected year)")
	cmd.Flags().Int("workers", 0, "Concurrent year workers (default from config)")
	cmd.Flags().String("output-dir", "", "Directory for the generated tables (default from config)")
	cmd.Flags().StringP("format", "f", export.FormatCSV, "Output format (csv, sqlite, both)")
	cmd.Flags().Bool("stats", false, "Show the per-year consolidation report")
	cmd.Flags().Bool("watch", false, "Re-run whenever dataset files change")

	return cmd
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what the dataset directory contains",
		Long: `Report, per year, which dataset files exist, their sizes and record
counts, followed by the collect-manifest summary.

Examples:
  plenario status --data-dir dados
  plenario status --years 2018-2022 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			formatStr, _ := cmd.Flags().GetString("format")

			statuses, err := dataset.ScanStatus(cfg.DataDir, cfg.Years)
			if err != nil {
				return err
			}

			switch formatStr {
			case "json":
				fmt.Println(dataset.FormatStatusReportJSON(statuses))
				return nil
			case "text":
			default:
				return fmt.Errorf("unknown format: %s (use text or json)", formatStr)
			}

			fmt.Print(dataset.FormatStatusReport(cfg.DataDir, statuses))

			manifest, err := camara.LoadManifest(camara.ManifestPath(cfg.DataDir))
			if err != nil {
				logger.Debug("collect manifest unreadable", zap.Error(err))
				return nil
			}
			fmt.Print(camara.FormatManifest(manifest.Snapshot()))
			return nil
		},
	}

	cmd.Flags().String("data-dir", "", "Dataset directory (default from config)")
	cmd.Flags().StringSlice("years", nil, "Years to inspect (empty inspects every collected year)")
	cmd.Flags().StringP("format", "f", "text", "Report format (text, json)")

	return cmd
}

func subjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "Report subject-tag frequencies across the dataset",
		Long: `Aggregate the proposition subjects collected per roll call into a
frequency report: distinct subject count, the most common subjects, and
per-year coverage.

Examples:
  plenario subjects --data-dir dados --top 10
  plenario subjects --years 2019 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			top, _ := cmd.Flags().GetInt("top")
			formatStr, _ := cmd.Flags().GetString("format")

			loader := dataset.NewDirLoader(cfg.DataDir)
			report, err := consolidate.BuildSubjectReport(loader, cfg.Years)
			if err != nil {
				return err
			}

			switch formatStr {
			case "json":
				fmt.Println(consolidate.FormatSubjectReportJSON(report))
			case "text":
				fmt.Print(consolidate.FormatSubjectReport(report, top))
			default:
				return fmt.Errorf("unknown format: %s (use text or json)", formatStr)
			}
			return nil
		},
	}

	cmd.Flags().String("data-dir", "", "Dataset directory (default from config)")
	cmd.Flags().StringSlice("years", nil, "Years to include (empty includes every collected year)")
	cmd.Flags().Int("top", 20, "How many subjects to list")
	cmd.Flags().StringP("format", "f", "text", "Report format (text, json)")

	return cmd
}

// loadConfig layers the file and environment configuration, then applies
// whichever shared flags the command defines and the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("years") {
		values, _ := cmd.Flags().GetStringSlice("years")
		years, err := parseYears(values)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Years = years
	}
	return cfg, nil
}

// parseYears accepts plain years and inclusive ranges, e.g. "2019,2021"
// or "2018-2022".
func parseYears(values []string) ([]int, error) {
	var years []int
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if first, last, ok := strings.Cut(value, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(first))
			if err != nil {
				return nil, fmt.Errorf("invalid year range %q", value)
			}
			end, err := strconv.Atoi(strings.TrimSpace(last))
			if err != nil {
				return nil, fmt.Errorf("invalid year range %q", value)
			}
			if end < start {
				return nil, fmt.Errorf("invalid year range %q", value)
			}
			for year := start; year <= end; year++ {
				years = append(years, year)
			}
			continue
		}
		year, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", value)
		}
		years = append(years, year)
	}
	return years, nil
}

// signalContext cancels the returned context on SIGINT or SIGTERM so
// long-running commands stop cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		if logger != nil {
			logger.Info("received shutdown signal")
		}
		cancel()
	}()
	return ctx, cancel
}
