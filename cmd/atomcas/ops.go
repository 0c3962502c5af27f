package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var barrierCmd = &cobra.Command{
	Use:   "barrier",
	Short: "Block until every write-back item enqueued so far has drained",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		return b.Barrier(cmd.Context())
	},
}

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Alias for barrier",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		return b.Flush(cmd.Context())
	},
}

var watermarksCmd = &cobra.Command{
	Use:   "watermarks HIGH LOW",
	Short: "Set the write-back queue's stall watermarks",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hi, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		lo, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		b.SetWatermarks(hi, lo)
		return nil
	},
}

var stallCmd = &cobra.Command{
	Use:   "stall true|false",
	Short: "Enable or disable blocking inserts above the high watermark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := strconv.ParseBool(args[0])
		if err != nil {
			return err
		}
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		b.StallWriters(enabled)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics accumulated since the last clear-stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		return b.PrintStats(os.Stdout)
	},
}

var clearStatsCmd = &cobra.Command{
	Use:   "clear-stats",
	Short: "Reset the statistics baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		return b.ClearStats()
	},
}
