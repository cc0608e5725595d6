// Package cli wires the upgrade/checkout pipeline to a cobra command tree:
// global logging flags, a context that cancels on SIGINT/SIGTERM, and one
// subcommand per operation.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"iota-cli/internal/applog"
)

// Version is set by main.go.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "iota-cli",
	Short: "Device-resident A/B firmware upgrade tool",
	Long: `iota-cli installs and activates signed, encrypted firmware
packages on an A/B-partitioned device.

  upgrade    decrypt, verify, and install a firmware package into the
             inactive slot (or in-place)
  checkout   flip the bootloader's next-boot slot to the one last
             upgraded, optionally rebooting`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var (
	verbose bool
	debug   bool
)

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "enable info-level logging to stderr")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "D", false, "enable debug-level logging to stderr")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		switch {
		case debug:
			applog.EnableDebugLogging()
		case verbose:
			applog.EnableVerboseLogging()
		}
	}
}

// Execute runs the CLI, returning the process exit code. version is baked
// in by cmd/iota-cli/main.go at build time.
func Execute(version string) int {
	Version = version
	rootCmd.Version = version

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\ncancelling, waiting for current step to finish...")
		cancel()
	}()
	defer signal.Stop(sigChan)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
