package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Deterministic event-driven backtest engine",
	Long: `quant replays historical bars through a strategy against a simulated
broker, verifies the results, and records everything in a content-addressed
artifact repository.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(storeCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
