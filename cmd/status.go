package main

import (
	"context"
	"xray-setup/internal/console"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the Xray service, config file and APT proxy state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, false, func(ctx context.Context, c *console.Controller) error {
			return c.Status(ctx)
		})
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Compare the direct IP with the IP seen through the local SOCKS proxy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, false, func(ctx context.Context, c *console.Controller) error {
			return c.TestConnection(ctx)
		})
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install base packages and Xray if missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, false, func(ctx context.Context, c *console.Controller) error {
			return c.Install(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(installCmd)
}
