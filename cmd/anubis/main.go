package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"anubis/internal/config"
	"anubis/internal/logging"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string

	// Logger
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "anubis",
	Short: "Anubis - generated-artifact lifecycle engine",
	Long: `Anubis writes generated files into a project under one of three policies:

  automatron  regenerated on every run, never hand-edit
  relic       generated once, then yours
  synthetic   regenerated, with your edits merged back in

Synthetic files keep a baseline copy under .anubis/cache so user edits can be
told apart from machine output on the next run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "Project config file, relative to the project root")

	baselineCmd.AddCommand(baselineListCmd)
	baselineCmd.AddCommand(baselineShowCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}
