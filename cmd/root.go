package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// logger is safe to use before initLogger runs; it starts as slog.Default().
var logger = slog.Default()

var debug bool

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

var rootCmd = &cobra.Command{
	Use:   "simon",
	Short: "Simon memory game",
	Long:  `Simon memory game. Repeat the notes back, one more every round.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(debug)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
