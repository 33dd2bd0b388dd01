package exporter

import (
	"context"
	"fmt"
	"xray-setup/internal/config"
	"xray-setup/internal/domain"
	"xray-setup/internal/exporter/uptimekuma"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module exports the exporter module
var Module = fx.Options(
	fx.Provide(NewManager),
)

type Manager struct {
	exporters []domain.Exporter
	logger    *zap.Logger
}

func NewManager(cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	manager := &Manager{
		logger: logger.With(zap.String("component", "exporter")),
	}

	for _, expCfg := range cfg.Exporters {
		exporter, err := createExporter(&expCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create exporter %s: %w", expCfg.Type, err)
		}
		manager.exporters = append(manager.exporters, exporter)
	}

	return manager, nil
}

func (m *Manager) Exporters() []domain.Exporter {
	return m.exporters
}

// Export sends check to every configured exporter, logging failures.
func (m *Manager) Export(ctx context.Context, check domain.Check) {
	for _, exporter := range m.exporters {
		if err := exporter.Export(ctx, check); err != nil {
			m.logger.Error("failed to export check",
				zap.String("status", check.Status),
				zap.Error(err),
			)
		}
	}
}

func createExporter(cfg *config.ExporterConfig) (domain.Exporter, error) {
	switch cfg.Type {
	case config.ExporterTypeUptimeKuma:
		return uptimekuma.New(cfg.Raw)
	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.Type)
	}
}
