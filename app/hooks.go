package app

import (
	"context"
	"xray-setup/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type hookParams struct {
	fx.In

	Logger    *zap.Logger
	Lifecycle fx.Lifecycle
	Source    config.Source
	Config    *config.Config
}

func registerHooks(p hookParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Debug("starting application",
				zap.String("config_file", p.Source.Path),
				zap.String("xray_config", p.Config.Xray.ConfigPath),
				zap.String("service", p.Config.Xray.ServiceName))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Debug("stopping application")
			return nil
		},
	})
}
