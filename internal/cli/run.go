package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctrlbench/ctrlbench/internal/config"
	"github.com/ctrlbench/ctrlbench/internal/executor"
	"github.com/ctrlbench/ctrlbench/internal/llm"
	"github.com/ctrlbench/ctrlbench/internal/metrics"
	"github.com/ctrlbench/ctrlbench/internal/models"
	"github.com/ctrlbench/ctrlbench/internal/registry"
	"github.com/ctrlbench/ctrlbench/internal/report"
	"github.com/ctrlbench/ctrlbench/internal/retry"
	"github.com/ctrlbench/ctrlbench/internal/util"
)

var (
	categoryFlag    string
	styleFlag       string
	controllersFlag []string
	modelFlag       string
	outputFlag      string
	verboseFlag     bool
	concurrencyFlag int
	timeoutFlag     time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller benchmark",
	Long: `Runs every requested controller against the same (category, style)
workload. Each invocation is wrapped in bounded exponential-backoff retries;
a controller that keeps failing degrades to a failed entry instead of
aborting the run. Results are aggregated and written as a markdown report
with a companion run log.`,
	Example: `  # Run with defaults (uses benchmark.yaml if present)
  ctrlbench run

  # Benchmark a specific workload with one controller
  ctrlbench run --category "AI" --style tech --controllers sequential

  # Override model and report destination
  ctrlbench run --model gpt-4o --output ./reports/latest.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load config
		cfg, err := config.LoadBenchConfig(resolveConfigPath())
		if err != nil {
			return err
		}

		// 2. Overrides
		if modelFlag != "" {
			cfg.Model = modelFlag
		}
		if len(controllersFlag) > 0 {
			cfg.Controllers = controllersFlag
		}
		if concurrencyFlag > 0 {
			cfg.Concurrency = concurrencyFlag
		}
		if cmd.Flags().Changed("category") || cmd.Flags().Changed("style") {
			cfg.Workloads = []models.Workload{{Category: categoryFlag, Style: styleFlag}}
		}

		// 3. Logger: stderr plus a timestamped run log next to the reports
		started := time.Now()
		logPath := util.TimestampedPath(cfg.OutputDir, "benchmark_run", ".log", started)
		logger, closeLog, err := newRunLogger(logPath, cfg.LogLevel, verboseFlag)
		if err != nil {
			return err
		}
		defer closeLog()

		// 4. Execution
		return runBenchmarks(cmd.Context(), cfg, logger)
	},
}

// newRunLogger builds the process logger: text lines to stderr, mirrored to
// the run log file. The file is best-effort; a failure to open it only
// costs the mirror.
func newRunLogger(logPath, level string, verbose bool) (*slog.Logger, func(), error) {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closeLog := func() {}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err == nil {
		w = io.MultiWriter(os.Stderr, f)
		closeLog = func() { f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	if err != nil {
		logger.Warn("run log unavailable", "path", logPath, "error", err)
	}
	return logger, closeLog, nil
}

// runBenchmarks executes every configured workload and writes one report
// per run.
func runBenchmarks(ctx context.Context, cfg models.BenchConfig, logger *slog.Logger) error {
	apiKey := os.Getenv(cfg.API.KeyEnv)
	client, err := llm.NewOpenAIClient(llm.OpenAIOptions{
		APIKey:  apiKey,
		BaseURL: cfg.API.BaseURL,
		Model:   cfg.Model,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("building llm client (set %s): %w", cfg.API.KeyEnv, err)
	}

	specs := config.DefaultControllerSpecs()
	if cfg.ControllersFile != "" {
		loaded, err := config.LoadControllerSpecs(os.DirFS("."), cfg.ControllersFile)
		if err != nil {
			return err
		}
		for typeID, spec := range loaded {
			specs[typeID] = spec
		}
	}

	orch, err := executor.NewOrchestrator(executor.Options{
		Registry:      registry.Builtin(),
		Client:        client,
		Specs:         specs,
		Model:         cfg.Model,
		Policy:        retry.FromConfig(cfg.Retry),
		MaxConcurrent: cfg.Concurrency,
		GracePeriod:   time.Duration(cfg.GracePeriodSec * float64(time.Second)),
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	for _, resErr := range orch.InitializeControllers(cfg.Controllers...) {
		logger.Warn("controller unavailable", "error", resErr)
	}

	gen := report.NewGenerator(logger)

	for i, workload := range cfg.Workloads {
		runCtx := ctx
		var cancel context.CancelFunc
		if timeoutFlag > 0 {
			runCtx, cancel = context.WithTimeout(ctx, timeoutFlag)
		}

		run, err := orch.RunBenchmark(runCtx, workload, cfg.Controllers...)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			return fmt.Errorf("running benchmark for %s: %w", workload, err)
		}

		stats := metrics.Aggregate(run)

		outputPath := outputFlag
		switch {
		case outputPath != "" && len(cfg.Workloads) > 1:
			// One requested path, several reports: fan out by workload index.
			outputPath = util.IndexedPath(outputPath, i+1)
		case outputPath == "" && len(cfg.Workloads) > 1:
			outputPath = util.TimestampedPath(cfg.OutputDir,
				fmt.Sprintf("benchmark_report_%d", i+1), ".md", run.StartedAt)
		case outputPath == "":
			outputPath = util.TimestampedPath(cfg.OutputDir, "benchmark_report", ".md", run.StartedAt)
		}

		rep, err := gen.Generate(run, stats, outputPath)
		if err != nil {
			// Report text survives a write failure; show it before bailing.
			fmt.Println(rep.Markdown)
			return err
		}

		printSummary(workload, run, stats, rep)
		if verboseFlag {
			echoReport(rep.Markdown)
		}

		// Stop the suite once the caller has cancelled.
		if ctx.Err() != nil {
			return fmt.Errorf("benchmark interrupted: %w", ctx.Err())
		}
	}

	return nil
}

func printSummary(workload models.Workload, run *models.BenchmarkRun, stats models.AggregateStats, rep *models.Report) {
	fmt.Printf("\nWorkload: %s\n", workload)
	fmt.Printf("Run ID: %s\n", run.ID)
	fmt.Printf("Controllers: %d\n", stats.TotalControllers)
	fmt.Printf("Successes: %d\n", stats.Successes)
	fmt.Printf("Failures: %d\n", stats.Failures)
	fmt.Printf("Success rate: %.2f%%\n", stats.SuccessRate*100)
	fmt.Printf("Mean elapsed: %s\n", stats.MeanElapsed.Round(time.Millisecond))
	fmt.Printf("Report: %s\n", rep.FilePath)
}

// echoReport prints the head and tail of the rendered report to stdout.
func echoReport(markdown string) {
	const edge = 12
	lines := strings.Split(strings.TrimRight(markdown, "\n"), "\n")
	if len(lines) <= 2*edge {
		fmt.Println(markdown)
		return
	}
	fmt.Println(strings.Join(lines[:edge], "\n"))
	fmt.Printf("... (%d lines elided) ...\n", len(lines)-2*edge)
	fmt.Println(strings.Join(lines[len(lines)-edge:], "\n"))
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&categoryFlag, "category", "AI", "Content category to generate")
	runCmd.Flags().StringVar(&styleFlag, "style", "tech", "Writing style for the workload")
	runCmd.Flags().StringSliceVar(&controllersFlag, "controllers", nil, "Comma-separated controller type ids (default: all registered)")
	runCmd.Flags().StringVar(&modelFlag, "model", "", "Model identifier passed to controller factories")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Report destination path, indexed per workload for suites (default derived from timestamp)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Echo report head/tail to stdout and enable debug logging")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", 0, "Max controllers in flight at once")
	runCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Deadline for each benchmark run (0 = none)")
}
