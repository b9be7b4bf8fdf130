package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.toml>",
	Short: "Replay a scenario and print the viewport trace",
	Long: `Replays every step of a scenario and prints one line per step: the
viewport rectangle, overscroll, gesture, scrollbar state, selection count
and focus of the viewport the step addressed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	s, closeSession, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer closeSession()

	out := cmd.OutOrStdout()
	for i := range s.Grids() {
		fmt.Fprintf(out, "  - %-8s %s\n", "open", s.Trace(i))
	}
	return s.Run(out)
}
