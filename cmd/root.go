package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
	logger  = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   "imgprint",
	Short: "Perceptual image fingerprints and Lanczos resizing",
	Long: `imgprint computes perceptual hashes (pHash, blockhash) of images,
compares them by Hamming distance, resizes with a Lanczos-3 filter and
indexes whole directories to find exact and near-duplicate images.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		logger = newLogger(verbose)
	},
}

// Execute runs the root command; SIGINT cancels in-flight work.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"imgprint %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// newLogger builds the stderr logger: debug records only with --verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("app", "imgprint")
}
