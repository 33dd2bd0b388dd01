// Package installer prepares a fresh host: base packages and the Xray daemon.
package installer

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"xray-setup/internal/config"
	"xray-setup/internal/domain"
	"xray-setup/internal/system"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(New),
)

// XrayBinary is looked up on PATH to detect an existing installation.
const XrayBinary = "xray"

// StateFunc reports the daemon state.
type StateFunc func(ctx context.Context) domain.ServiceState

// Report summarizes an installer run.
type Report struct {
	PackagesInstalled bool
	XrayInstalled     bool
	XrayPresent       bool
}

type step struct {
	description string
	run         func(ctx context.Context, report *Report) error
}

type Installer struct {
	cfg      config.InstallConfig
	runner   system.CommandRunner
	state    StateFunc
	lookPath func(string) (string, error)
	logger   *zap.Logger
}

type Params struct {
	fx.In

	Config *config.Config
	Runner system.CommandRunner
	State  StateFunc
	Logger *zap.Logger
}

func New(p Params) *Installer {
	return &Installer{
		cfg:      p.Config.Install,
		runner:   p.Runner,
		state:    p.State,
		lookPath: exec.LookPath,
		logger:   p.Logger.With(zap.String("component", "installer")),
	}
}

// WithLookPath replaces the PATH lookup, for tests.
func (i *Installer) WithLookPath(lookPath func(string) (string, error)) *Installer {
	i.lookPath = lookPath
	return i
}

// Skipped reports whether installation is disabled by configuration.
func (i *Installer) Skipped() bool {
	return i.cfg.Skip
}

// Run refreshes the package index, installs the base packages and installs
// Xray unless the daemon is already running or the binary is on PATH. Progress
// is drawn on w.
func (i *Installer) Run(ctx context.Context, w io.Writer) (Report, error) {
	var report Report
	if i.cfg.Skip {
		i.logger.Info("installation disabled by configuration")
		return report, nil
	}

	steps := i.steps()
	bar := newProgressBar(len(steps), w)
	defer func() {
		_ = bar.Finish()
		fmt.Fprintln(w)
	}()

	for _, s := range steps {
		bar.Describe(s.description)
		i.logger.Debug("installer step", zap.String("step", s.description))

		if err := s.run(ctx, &report); err != nil {
			return report, err
		}
		_ = bar.Add(1)
	}

	return report, nil
}

func (i *Installer) steps() []step {
	return []step{
		{
			description: "[cyan]Refreshing package index...[reset]",
			run: func(ctx context.Context, _ *Report) error {
				if _, err := i.runner.Run(ctx, "apt", "update"); err != nil {
					return fmt.Errorf("apt update failed: %w", err)
				}
				return nil
			},
		},
		{
			description: "[cyan]Installing base packages...[reset]",
			run: func(ctx context.Context, report *Report) error {
				if len(i.cfg.Packages) == 0 {
					return nil
				}
				args := append([]string{"install", "-y"}, i.cfg.Packages...)
				if _, err := i.runner.Run(ctx, "apt", args...); err != nil {
					return fmt.Errorf("failed to install base packages: %w", err)
				}
				report.PackagesInstalled = true
				return nil
			},
		},
		{
			description: "[cyan]Checking Xray...[reset]",
			run: func(ctx context.Context, report *Report) error {
				report.XrayPresent = i.xrayPresent(ctx)
				return nil
			},
		},
		{
			description: "[cyan]Installing Xray...[reset]",
			run: func(ctx context.Context, report *Report) error {
				if report.XrayPresent {
					i.logger.Info("xray already installed")
					return nil
				}
				i.logger.Info("installing xray")
				if _, err := i.runner.Run(ctx, "bash", "-c", i.cfg.XrayCommand); err != nil {
					return fmt.Errorf("failed to install xray: %w", err)
				}
				report.XrayInstalled = true
				return nil
			},
		},
	}
}

func (i *Installer) xrayPresent(ctx context.Context) bool {
	if i.state(ctx) == domain.ServiceStateRunning {
		return true
	}
	path, err := i.lookPath(XrayBinary)
	if err != nil {
		return false
	}
	i.logger.Debug("found xray binary", zap.String("path", path))
	return true
}

func newProgressBar(steps int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(steps,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
