package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "ctrlbench",
		Short: "Benchmark content-generation controller strategies",
		Long: `ctrlbench runs interchangeable content-generation controllers against an
identical workload, retries transient failures with bounded exponential
backoff, and emits a deterministic comparison report.`,
	}
)

// Execute runs the root command under ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// resolveConfigPath returns the config file to load: the --config flag if
// given, ./benchmark.yaml if present, otherwise "" (built-in defaults).
func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat("benchmark.yaml"); err == nil {
		return "benchmark.yaml"
	}
	return ""
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./benchmark.yaml if present)")
}
