package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/wattle/internal/logging"
	"github.com/aretw0/wattle/internal/presentation/tui"
)

var rootCmd = &cobra.Command{
	Use:   "wattle",
	Short: "Wattle runs stateful graph workflows",
	Long: `Wattle executes directed graphs over a typed shared state: nodes return
partial updates, per-field reducers fold them in, and conditional edges pick
the next node until the flow reaches its end.

The binary ships a few built-in graphs so every command works out of the box;
the library under pkg/ is the actual product.`,
	Run: func(cmd *cobra.Command, args []string) {
		tui.PrintBanner(os.Stdout)
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
}

// rootLogger builds the command logger from the persistent flags.
func rootLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return logging.New(logging.ParseLevel(level), format)
}
