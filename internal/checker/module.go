package checker

import (
	"context"
	"xray-setup/internal/config"
	"xray-setup/internal/exporter"

	"go.uber.org/fx"
)

// Module exports the checker module
var Module = fx.Options(
	fx.Provide(func(cfg *config.Config) IPChecker {
		return NewIPChecker(cfg.Check.IPService, cfg.Check.TimeoutDuration())
	}),
	fx.Provide(newCountryLookup),
	fx.Provide(func(m *exporter.Manager) ResultExporter {
		return m
	}),
	fx.Provide(NewTester),
)

func newCountryLookup(lc fx.Lifecycle, cfg *config.Config) (CountryLookup, error) {
	lookup, err := OpenCountryLookup(cfg.Check.GeoIPCountryPath)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return lookup.Close()
		},
	})
	return lookup, nil
}
