package main

import (
	"context"
	"xray-setup/internal/console"

	"github.com/spf13/cobra"
)

var aptCmd = &cobra.Command{
	Use:   "apt",
	Short: "Route APT through the local SOCKS proxy",
}

var aptEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Write the APT proxy directives and refresh the package index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, true, func(ctx context.Context, c *console.Controller) error {
			return c.EnableAptProxy(ctx)
		})
	},
}

var aptDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the APT proxy directives and refresh the package index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, true, func(ctx context.Context, c *console.Controller) error {
			return c.DisableAptProxy(ctx)
		})
	},
}

func init() {
	aptCmd.AddCommand(aptEnableCmd)
	aptCmd.AddCommand(aptDisableCmd)
	rootCmd.AddCommand(aptCmd)
}
