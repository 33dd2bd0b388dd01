package config

import "go.uber.org/fx"

// Source identifies the configuration file to load.
type Source struct {
	Path     string
	Explicit bool
}

// NewSource resolves the path from a --config flag value.
func NewSource(flagValue string) Source {
	path, explicit := Path(flagValue)
	return Source{Path: path, Explicit: explicit}
}

var Module = fx.Options(
	fx.Provide(func(src Source) (*Config, error) {
		return Load(src.Path, src.Explicit)
	}),
)
