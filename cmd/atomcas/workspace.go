package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var wcidCmd = &cobra.Command{
	Use:   "wcid",
	Short: "Print the current workspace CID",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		fmt.Println(b.GetWorkspaceCID())
		return nil
	},
}

var nameCmd = &cobra.Command{
	Use:   "name",
	Short: "Print the workspace's stable MNS name, if any",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		name := b.GetWorkspaceName()
		if name == "" {
			return fmt.Errorf("this workspace has no stable name")
		}
		fmt.Println(name)
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Wake the MNS publisher to republish the current workspace root",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		return b.PublishWorkspace()
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Re-resolve the workspace's stable name and adopt its current WCID",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		if err := b.ResolveWorkspace(cmd.Context()); err != nil {
			return err
		}
		fmt.Println(b.GetWorkspaceCID())
		return nil
	},
}

var killDataCmd = &cobra.Command{
	Use:   "kill-data",
	Short: "Reset the workspace to a single empty object (destructive)",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed, _ := cmd.Flags().GetBool("yes")
		if !confirmed {
			return fmt.Errorf("this resets the entire workspace; pass --yes to confirm")
		}
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		return b.KillData(cmd.Context())
	},
}

func init() {
	killDataCmd.Flags().Bool("yes", false, "Confirm the destructive reset")
}
