package xray

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"xray-setup/internal/config"
	"xray-setup/internal/domain"
	"xray-setup/internal/system"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(NewService),
)

// Service owns the daemon configuration file and the daemon unit.
type Service struct {
	configPath     string
	unit           string
	skipValidation bool
	services       system.ServiceManager
	metrics        domain.MetricsCollector
	logger         *zap.Logger
}

func NewService(
	cfg *config.Config,
	services system.ServiceManager,
	metrics domain.MetricsCollector,
	logger *zap.Logger,
) *Service {
	return &Service{
		configPath:     cfg.Xray.ConfigPath,
		unit:           cfg.Xray.ServiceName,
		skipValidation: cfg.Xray.SkipValidation,
		services:       services,
		metrics:        metrics,
		logger:         logger.With(zap.String("component", "xray")),
	}
}

func (s *Service) ConfigPath() string {
	return s.configPath
}

func (s *Service) Unit() string {
	return s.unit
}

// Apply generates the document for l, writes it and restarts the daemon. It
// returns the service status report printed after the restart. The file is
// left untouched when generation or validation fails.
func (s *Service) Apply(ctx context.Context, l domain.ParsedLink) (string, error) {
	report, err := s.apply(ctx, l)
	s.metrics.RecordConfigApply(err)
	return report, err
}

func (s *Service) apply(ctx context.Context, l domain.ParsedLink) (string, error) {
	data, err := GenerateConfig(l)
	if err != nil {
		return "", err
	}

	if s.skipValidation {
		s.logger.Debug("skipping config validation")
	} else if err := Validate(data); err != nil {
		return "", err
	}

	if err := s.writeConfig(data); err != nil {
		return "", err
	}

	err = s.services.Restart(ctx, s.unit)
	s.metrics.RecordServiceRestart(err)
	if err != nil {
		return "", err
	}

	report, err := s.services.Describe(ctx, s.unit)
	if err != nil {
		// The new configuration is in place, only the report is missing
		s.logger.Warn("failed to describe service", zap.Error(err))
		return "", nil
	}
	return report, nil
}

func (s *Service) writeConfig(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(s.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	s.logger.Info("config written",
		zap.String("path", s.configPath),
		zap.Int("bytes", len(data)))
	return nil
}

func (s *Service) State(ctx context.Context) domain.ServiceState {
	return s.services.State(ctx, s.unit)
}

// ConfigExists reports whether a configuration file is present.
func (s *Service) ConfigExists() (bool, error) {
	_, err := os.Stat(s.configPath)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
}
