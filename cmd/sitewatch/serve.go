package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/httpapi"
	"github.com/hamed0406/sitewatch/internal/logging"
	"github.com/hamed0406/sitewatch/internal/metrics"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
	"github.com/hamed0406/sitewatch/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the check loop and the metrics API",
	Long: `Load configuration from the environment (and an optional .env file),
start the check scheduler and serve /metrics, /status and /healthz until
SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "targets file (overrides TARGETS_FILE)")
	serveCmd.Flags().String("env-file", ".env", "dotenv file to load if present")
}

// loadDotenv applies path if it exists. Variables already set in the
// environment win.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	f, err := appFs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	vals, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for k, v := range vals {
		if _, set := os.LookupEnv(k); !set {
			if err := os.Setenv(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := loadDotenv(envFile); err != nil {
		return err
	}
	cfg := config.FromEnv()
	if f, _ := cmd.Flags().GetString("config"); f != "" {
		cfg.TargetsFile = f
	}

	logger, err := logging.NewLogger(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Console: cfg.LogConsole})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	file, err := config.LoadTargets(appFs, cfg.TargetsFile)
	if err != nil {
		logger.Error("targets_invalid", zap.String("file", cfg.TargetsFile), zap.Error(err))
		return err
	}
	targets := memory.New(file.Targets()...)

	reg := metrics.New(metrics.WithRuntimeCollectors())
	checker := probe.NewHTTPChecker(cfg.CheckTimeout)
	defer checker.Close()
	inspector := probe.NewCertInspector(cfg.CheckTimeout)

	sched := scheduler.New(logger, targets, checker, inspector, reg, cfg.CheckTimeout, cfg.MaxConcurrent)
	api := httpapi.NewServer(logger, targets, reg, sched, httpapi.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		ScrapeTokens:   cfg.ScrapeTokens,
		StatusRPM:      cfg.StatusRPM,
		StatusBurst:    cfg.StatusBurst,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("sitewatch_starting",
		zap.String("version", version),
		zap.String("addr", cfg.Addr),
		zap.Int("sites", len(file.Sites)),
	)

	var schedErr, apiErr error
	var wg conc.WaitGroup
	wg.Go(func() { schedErr = sched.Run(ctx) })
	wg.Go(func() {
		apiErr = api.ListenAndServe(ctx, cfg.Addr)
		// a dead API leaves nothing to scrape
		cancel()
	})
	wg.Wait()

	if errors.Is(schedErr, context.Canceled) {
		schedErr = nil
	}
	err = multierr.Combine(schedErr, apiErr)
	if err != nil {
		logger.Error("sitewatch_stopped", zap.Error(err))
		return err
	}
	logger.Info("sitewatch_stopped")
	return nil
}
