package system

import (
	"context"
	"fmt"
	"strings"
	"xray-setup/internal/domain"

	"go.uber.org/zap"
)

// ServiceManager controls units of the host service manager.
type ServiceManager interface {
	Restart(ctx context.Context, unit string) error
	State(ctx context.Context, unit string) domain.ServiceState
	Describe(ctx context.Context, unit string) (string, error)
}

// Systemd drives units through systemctl.
type Systemd struct {
	runner CommandRunner
	logger *zap.Logger
}

func NewSystemd(runner CommandRunner, logger *zap.Logger) *Systemd {
	return &Systemd{
		runner: runner,
		logger: logger.With(zap.String("component", "systemd")),
	}
}

func (s *Systemd) Restart(ctx context.Context, unit string) error {
	s.logger.Info("restarting service", zap.String("unit", unit))

	if _, err := s.runner.Run(ctx, "systemctl", "restart", unit); err != nil {
		return fmt.Errorf("failed to restart %s: %w", unit, err)
	}
	return nil
}

// State maps `systemctl is-active` output to a tri-state. is-active exits
// non-zero for anything but an active unit, so only the printed state counts.
func (s *Systemd) State(ctx context.Context, unit string) domain.ServiceState {
	res, err := s.runner.Run(ctx, "systemctl", "is-active", unit)
	if err != nil && !IsExitError(err) {
		s.logger.Warn("failed to query service state",
			zap.String("unit", unit),
			zap.Error(err))
		return domain.ServiceStateUnknown
	}

	state := parseActiveState(res.Stdout)
	s.logger.Debug("service state",
		zap.String("unit", unit),
		zap.Stringer("state", state))
	return state
}

// Describe returns the human readable `systemctl status` report. A stopped unit
// makes systemctl exit non-zero but still prints a report.
func (s *Systemd) Describe(ctx context.Context, unit string) (string, error) {
	res, err := s.runner.Run(ctx, "systemctl", "status", unit, "--no-pager")
	if err != nil && !IsExitError(err) {
		return "", fmt.Errorf("failed to get status of %s: %w", unit, err)
	}

	if out := strings.TrimRight(res.Stdout, "\n"); out != "" {
		return out, nil
	}
	return strings.TrimRight(res.Stderr, "\n"), nil
}

func parseActiveState(output string) domain.ServiceState {
	switch strings.TrimSpace(output) {
	case "active", "reloading":
		return domain.ServiceStateRunning
	case "inactive", "failed", "deactivating":
		return domain.ServiceStateStopped
	default:
		return domain.ServiceStateUnknown
	}
}
