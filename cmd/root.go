package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/statloom/internal/config"
	"github.com/KaramelBytes/statloom/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	flagSeed    uint64
	flagWorkers int
	flagJSON    bool
	flagOutput  string

	// Per-invocation state built by setup
	cfg    *cfgpkg.Global
	logger *zap.Logger
	runID  string
)

var rootCmd = &cobra.Command{
	Use:   "statloom",
	Short: "statloom: likelihood fits, resampling tests and simulation studies",
	Long: `statloom fits maximum-likelihood models to tabular data, compares nested
models with likelihood-ratio tests, and runs permutation tests, bootstrap
intervals and coverage or p-value simulation studies with reproducible seeds.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = setup
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ~/.statloom/config.yaml)")
	f.BoolVar(&debug, "debug", false, "enable debug logging")
	f.Uint64Var(&flagSeed, "seed", 0, "random seed (overrides config)")
	f.IntVar(&flagWorkers, "workers", 0, "parallel resampling workers (overrides config)")
	f.BoolVar(&flagJSON, "json", false, "print results as JSON")
	f.StringVarP(&flagOutput, "output", "o", "", "write the result to a file instead of stdout")
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in settings
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	f := cmd.Root().PersistentFlags()
	if f.Changed("seed") {
		cfg.Seed = flagSeed
	}
	if f.Changed("workers") {
		if flagWorkers < 1 {
			return fmt.Errorf("--workers must be at least 1, got %d", flagWorkers)
		}
		cfg.Workers = flagWorkers
	}
	if flagJSON {
		cfg.OutputFormat = "json"
	}

	runID = uuid.NewString()
	l, err := newLogger(debug, cfg.LogLevel)
	if err != nil {
		return err
	}
	logger = l.With(zap.String("run", runID), zap.String("command", cmd.CommandPath()))
	logger.Debug("config loaded",
		zap.Uint64("seed", cfg.Seed),
		zap.Int("resamples", cfg.Resamples),
		zap.Int("workers", cfg.Workers),
		zap.String("optimizer", cfg.Optimizer))
	return nil
}

// newLogger builds a development logger under --debug and a production JSON
// logger at the configured level otherwise. Both write to stderr.
func newLogger(debug bool, level string) (*zap.Logger, error) {
	if debug {
		zc := zap.NewDevelopmentConfig()
		zc.OutputPaths = []string{"stderr"}
		return zc.Build()
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	zc.Sampling = nil
	return zc.Build()
}

// result is the JSON envelope for every command's output.
type result struct {
	RunID   string `json:"run_id"`
	Command string `json:"command"`
	Result  any    `json:"result"`
}

// emit renders v as Markdown or JSON and writes it to --output or stdout.
func emit(cmd *cobra.Command, v any, md string) error {
	data := []byte(md)
	if cfg != nil && cfg.OutputFormat == "json" {
		b, err := utils.PrettyJSON(result{RunID: runID, Command: cmd.CommandPath(), Result: v})
		if err != nil {
			return err
		}
		data = b
	}
	if flagOutput != "" {
		if err := utils.SafeWriteFile(flagOutput, data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", flagOutput)
		return nil
	}
	_, err := cmd.OutOrStdout().Write(data)
	return err
}
