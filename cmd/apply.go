package main

import (
	"context"
	"xray-setup/internal/console"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <vless-link>",
	Short: "Write the Xray config for a share-link and restart the service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, true, func(ctx context.Context, c *console.Controller) error {
			return c.SetConfig(ctx, args[0])
		})
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <vless-link>",
	Short: "Print the Xray config for a share-link without applying it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, false, func(_ context.Context, c *console.Controller) error {
			return c.Render(args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(renderCmd)
}
