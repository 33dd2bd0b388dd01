package installer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"xray-setup/internal/config"
	"xray-setup/internal/domain"
	"xray-setup/internal/system/systemtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	installBase = "apt install -y curl gnupg ca-certificates lsb-release software-properties-common"
	installXray = "bash -c bash <(curl -Ls https://github.com/XTLS/Xray-install/raw/main/install-release.sh)"
)

func newTestInstaller(cfg *config.Config, runner *systemtest.Runner, state domain.ServiceState, onPath bool) *Installer {
	inst := New(Params{
		Config: cfg,
		Runner: runner,
		State:  func(context.Context) domain.ServiceState { return state },
		Logger: zap.NewNop(),
	})
	return inst.WithLookPath(func(name string) (string, error) {
		if onPath {
			return "/usr/local/bin/" + name, nil
		}
		return "", errors.New("executable file not found in $PATH")
	})
}

func TestInstallerRun(t *testing.T) {
	tests := []struct {
		name        string
		configure   func(*config.Config)
		state       domain.ServiceState
		onPath      bool
		setup       func(*systemtest.Runner)
		expectError bool
		validate    func(*testing.T, Report, []string)
	}{
		{
			name:  "Fresh host installs everything",
			state: domain.ServiceStateUnknown,
			validate: func(t *testing.T, r Report, calls []string) {
				assert.Equal(t, []string{"apt update", installBase, installXray}, calls)
				assert.True(t, r.PackagesInstalled)
				assert.True(t, r.XrayInstalled)
			},
		},
		{
			name:  "Running daemon is not reinstalled",
			state: domain.ServiceStateRunning,
			validate: func(t *testing.T, r Report, calls []string) {
				assert.Equal(t, []string{"apt update", installBase}, calls)
				assert.True(t, r.XrayPresent)
				assert.False(t, r.XrayInstalled)
			},
		},
		{
			name:   "Stopped daemon with binary on path",
			state:  domain.ServiceStateStopped,
			onPath: true,
			validate: func(t *testing.T, r Report, calls []string) {
				assert.NotContains(t, calls, installXray)
				assert.True(t, r.XrayPresent)
			},
		},
		{
			name: "Skip disables every step",
			configure: func(cfg *config.Config) {
				cfg.Install.Skip = true
			},
			validate: func(t *testing.T, r Report, calls []string) {
				assert.Empty(t, calls)
				assert.Equal(t, Report{}, r)
			},
		},
		{
			name: "Custom package list",
			configure: func(cfg *config.Config) {
				cfg.Install.Packages = []string{"curl"}
			},
			state: domain.ServiceStateRunning,
			validate: func(t *testing.T, r Report, calls []string) {
				assert.Equal(t, []string{"apt update", "apt install -y curl"}, calls)
			},
		},
		{
			name: "Index refresh failure stops the sequence",
			setup: func(r *systemtest.Runner) {
				r.OnExit("apt update", 100, "")
			},
			expectError: true,
			validate: func(t *testing.T, r Report, calls []string) {
				assert.Equal(t, []string{"apt update"}, calls)
			},
		},
		{
			name: "Xray install failure",
			setup: func(r *systemtest.Runner) {
				r.OnExit(installXray, 1, "")
			},
			expectError: true,
			validate: func(t *testing.T, r Report, calls []string) {
				assert.True(t, r.PackagesInstalled)
				assert.False(t, r.XrayInstalled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.configure != nil {
				tt.configure(cfg)
			}
			runner := systemtest.NewRunner()
			if tt.setup != nil {
				tt.setup(runner)
			}

			report, err := newTestInstaller(cfg, runner, tt.state, tt.onPath).Run(context.Background(), io.Discard)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			if tt.validate != nil {
				tt.validate(t, report, runner.Calls())
			}
		})
	}
}

func TestInstallerDrawsProgress(t *testing.T) {
	var out bytes.Buffer
	inst := newTestInstaller(config.Default(), systemtest.NewRunner(), domain.ServiceStateRunning, false)

	_, err := inst.Run(context.Background(), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "4/4")
}
