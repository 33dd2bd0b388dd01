package common

import (
	"io"
	"xray-setup/internal/console"
	"xray-setup/internal/system"

	"go.uber.org/zap"
)

// ServiceOptions defines common options for building the application
type ServiceOptions struct {
	Logger     *zap.Logger
	ConfigPath string
	Runner     system.CommandRunner
	Streams    console.Streams
	Privileges console.PrivilegeCheck
}

// Option defines a service option modifier
type Option func(*ServiceOptions)

func WithLogger(logger *zap.Logger) Option {
	return func(o *ServiceOptions) {
		o.Logger = logger
	}
}

// WithConfigPath sets the --config value; empty falls back to CONFIG_PATH
// and the default location.
func WithConfigPath(path string) Option {
	return func(o *ServiceOptions) {
		o.ConfigPath = path
	}
}

func WithRunner(runner system.CommandRunner) Option {
	return func(o *ServiceOptions) {
		o.Runner = runner
	}
}

func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(o *ServiceOptions) {
		o.Streams = console.Streams{In: in, Out: out, ErrOut: errOut}
	}
}

func WithPrivilegeCheck(check console.PrivilegeCheck) Option {
	return func(o *ServiceOptions) {
		o.Privileges = check
	}
}
