package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream backend activity notifications until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		sub := b.Subscribe()
		defer b.Unsubscribe(sub)

		ctx := cmd.Context()
		for {
			select {
			case ev, ok := <-sub:
				if !ok {
					return nil
				}
				fmt.Printf("%s %-24s guid=%s wcid=%s %s\n",
					ev.Timestamp.Format("15:04:05"), ev.Type, ev.GUID, ev.WCID, ev.Message)
			case <-ctx.Done():
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
