package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koios/zigstar-flasher/internal/smoketest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	manifestPath string
	verbose      bool

	rootCmd = &cobra.Command{
		Use:   "zigstar-flasher-smoketest",
		Short: "Check that the flasher add-on's binaries, files and network resources are in place.",
		Long: `
Runs every check from the manifest and prints one line per check followed by a
summary. Without --manifest the built-in suite is used: the zigstar-flasher
script and its --help banner, the cc2538-bsl python module, the web interface
binary, the firmware directory and outbound HTTP access.

Exits with status 1 if any check fails.
`,
		SilenceUsage: true,
		RunE:         run,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "YAML file listing the checks to run")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log check failures in detail")
}

func run(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var manifest *smoketest.Manifest
	if manifestPath != "" {
		manifest, err = smoketest.LoadManifest(manifestPath)
	} else {
		manifest, err = smoketest.DefaultManifest()
	}
	if err != nil {
		logger.Error("Failed to load manifest", zap.String("path", manifestPath), zap.Error(err))
		return err
	}

	report := smoketest.NewRunner(cmd.OutOrStdout(), logger).Run(cmd.Context(), manifest)
	if !report.AllPassed() {
		return fmt.Errorf("%d of %d checks failed", len(report.Results)-report.PassedCount(), len(report.Results))
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
