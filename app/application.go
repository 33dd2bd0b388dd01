package app

import (
	"bufio"
	"context"
	"os"
	"time"
	"xray-setup/internal/apt"
	"xray-setup/internal/checker"
	"xray-setup/internal/common"
	"xray-setup/internal/config"
	"xray-setup/internal/console"
	"xray-setup/internal/domain"
	"xray-setup/internal/exporter"
	"xray-setup/internal/installer"
	"xray-setup/internal/metrics"
	"xray-setup/internal/system"
	"xray-setup/internal/xray"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Application struct {
	app        *fx.App
	logger     *zap.Logger
	controller *console.Controller
	streams    console.Streams
}

func NewApplication(opts ...common.Option) *Application {
	options := newServiceOptions(opts...)

	app := &Application{
		logger:  options.Logger,
		streams: options.Streams,
	}

	// Build fx application
	app.app = fx.New(
		append(modules(options),
			fx.Populate(&app.controller),

			// Configure fx
			fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
				l := &fxevent.ZapLogger{Logger: logger}
				l.UseLogLevel(zapcore.DebugLevel)
				return l
			}),

			// Set timeouts
			fx.StopTimeout(30*time.Second),
			fx.StartTimeout(30*time.Second),
		)...,
	)

	return app
}

func newServiceOptions(opts ...common.Option) *common.ServiceOptions {
	options := &common.ServiceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Ensure required options are set
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Streams.In == nil {
		options.Streams.In = os.Stdin
	}
	if options.Streams.Out == nil {
		options.Streams.Out = os.Stdout
	}
	if options.Streams.ErrOut == nil {
		options.Streams.ErrOut = os.Stderr
	}
	if options.Privileges == nil {
		logger := options.Logger
		options.Privileges = func() error { return system.CheckPrivileges(logger) }
	}
	return options
}

// modules is the dependency graph shared by the application and its test
// harness.
func modules(options *common.ServiceOptions) []fx.Option {
	return []fx.Option{
		// Provide base dependencies
		fx.Provide(
			func() *zap.Logger { return options.Logger },
			func() config.Source { return config.NewSource(options.ConfigPath) },
			func() console.Streams { return options.Streams },
			func() console.PrivilegeCheck { return options.Privileges },
			func(logger *zap.Logger, metrics domain.MetricsCollector) system.CommandRunner {
				if options.Runner != nil {
					return options.Runner
				}
				return system.NewRunner(logger, metrics)
			},
			func(s *xray.Service) installer.StateFunc { return s.State },
		),

		// Core modules
		config.Module,
		metrics.Module,
		system.Module,
		xray.Module,
		apt.Module,
		installer.Module,
		exporter.Module,
		checker.Module,
		console.Module,

		// Register lifecycle hooks
		fx.Invoke(registerHooks),
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.app.Start(ctx)
}

func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// Err reports a failure to build the dependency graph, e.g. an invalid
// configuration file.
func (a *Application) Err() error {
	return a.app.Err()
}

func (a *Application) Controller() *console.Controller {
	return a.controller
}

// RunMenu shows the interactive menu on the configured streams.
func (a *Application) RunMenu(ctx context.Context) error {
	in := bufio.NewReader(a.streams.In)
	return console.Run(ctx, in, a.streams.Out, a.streams.ErrOut, a.controller)
}
