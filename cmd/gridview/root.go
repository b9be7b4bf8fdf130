package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gogpu/gridview"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	deviceName string
)

var rootCmd = &cobra.Command{
	Use:   "gridview",
	Short: "Replay grid viewport scenarios",
	Long: `gridview drives the GPU-instanced grid viewport engine from a TOML
scenario: grid size, canvas, data source and a list of pointer, wheel and
selection steps.

Examples:
  gridview simulate testdata/pan.toml              # print a viewport trace
  gridview snapshot testdata/pan.toml -o pan.png   # write a preview image
  gridview simulate --device vulkan pan.toml       # render on a real GPU`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		configureLogging(cmd.ErrOrStderr(), verbose)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&deviceName, "device", deviceNoop, "render device: noop or vulkan")
}

func configureLogging(w io.Writer, debug bool) {
	if !debug {
		gridview.SetLogger(nil)
		return
	}
	gridview.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}
