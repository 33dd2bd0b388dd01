package main

import (
	"context"
	"fmt"
	"time"
	"xray-setup/app"
	"xray-setup/internal/common"
	"xray-setup/internal/console"
	"xray-setup/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "xray-setup",
	Short: "Configure Xray from a VLESS share-link and route APT through it",
	Long: `Without a subcommand, checks for root, installs missing dependencies and
opens the interactive menu.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, a *app.Application) error {
			if err := a.Controller().Bootstrap(ctx); err != nil {
				return err
			}
			return a.RunMenu(ctx)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_PATH or /usr/local/etc/xray-setup/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr (overwrites file)")
}

// withApplication builds and starts the application around fn and stops it
// afterwards, which also flushes metrics.
func withApplication(cmd *cobra.Command, fn func(context.Context, *app.Application) error) error {
	log, closeLog, err := logger.New(verbose, logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	application := app.NewApplication(
		common.WithLogger(log),
		common.WithConfigPath(cfgFile),
		common.WithIO(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
	)
	if err := application.Err(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ctx := cmd.Context()
	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	defer func() {
		// Stop with timeout
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := application.Stop(stopCtx); err != nil {
			log.Error("failed to stop application gracefully", zap.Error(err))
		}
	}()

	return fn(ctx, application)
}

// withController is withApplication for commands that only need the
// controller. Privileged commands check for root first.
func withController(cmd *cobra.Command, privileged bool, fn func(context.Context, *console.Controller) error) error {
	return withApplication(cmd, func(ctx context.Context, a *app.Application) error {
		if privileged {
			if err := a.Controller().CheckPrivileges(); err != nil {
				return err
			}
		}
		return fn(ctx, a.Controller())
	})
}
