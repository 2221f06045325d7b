package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/config"
	"github.com/grovekit/grove/internal/launch"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List available coding agent tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDefault()
			if err != nil {
				return err
			}
			for _, t := range launch.NewResolver(cfg).Tools() {
				marker := " "
				if t.ID == cfg.DefaultTool {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-12s %s\n", marker, t.ID, t.Command)
			}
			return nil
		},
	}
}
