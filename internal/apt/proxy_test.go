package apt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"xray-setup/internal/config"
	"xray-setup/internal/metrics"
	"xray-setup/internal/system"
	"xray-setup/internal/system/systemtest"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const expectedDirectives = "Acquire::http::Proxy \"socks5h://127.0.0.1:10808\";\n" +
	"Acquire::https::Proxy \"socks5h://127.0.0.1:10808\";\n"

func newTestProxy(t *testing.T, runner *systemtest.Runner) *Proxy {
	t.Helper()

	cfg := config.Default()
	cfg.Apt.ProxyPath = filepath.Join(t.TempDir(), "apt.conf.d", "99proxy")

	logger := zap.NewNop()
	return NewProxy(cfg, runner, metrics.NewCollector(logger), logger)
}

func TestProxy(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*testing.T, *Proxy, *systemtest.Runner)
		action      func(*Proxy, context.Context) error
		expectError bool
		validate    func(*testing.T, *Proxy, *systemtest.Runner)
	}{
		{
			name:   "Enable writes directives",
			action: (*Proxy).Enable,
			validate: func(t *testing.T, p *Proxy, r *systemtest.Runner) {
				data, err := os.ReadFile(p.Path())
				require.NoError(t, err)
				assert.Equal(t, expectedDirectives, string(data))
				assert.Equal(t, []string{"apt update"}, r.Calls())
			},
		},
		{
			name: "Enable overwrites existing file",
			setup: func(t *testing.T, p *Proxy, r *systemtest.Runner) {
				require.NoError(t, os.MkdirAll(filepath.Dir(p.Path()), 0755))
				require.NoError(t, os.WriteFile(p.Path(), []byte("stale"), 0644))
			},
			action: (*Proxy).Enable,
			validate: func(t *testing.T, p *Proxy, r *systemtest.Runner) {
				data, err := os.ReadFile(p.Path())
				require.NoError(t, err)
				assert.Equal(t, expectedDirectives, string(data))
			},
		},
		{
			name: "Disable removes file",
			setup: func(t *testing.T, p *Proxy, r *systemtest.Runner) {
				require.NoError(t, p.Enable(context.Background()))
			},
			action: (*Proxy).Disable,
			validate: func(t *testing.T, p *Proxy, r *systemtest.Runner) {
				enabled, err := p.Enabled()
				require.NoError(t, err)
				assert.False(t, enabled)
				assert.Equal(t, []string{"apt update", "apt update"}, r.Calls())
			},
		},
		{
			name:   "Disable without file still refreshes",
			action: (*Proxy).Disable,
			validate: func(t *testing.T, p *Proxy, r *systemtest.Runner) {
				assert.Equal(t, []string{"apt update"}, r.Calls())
			},
		},
		{
			name: "Refresh failure is reported after the change",
			setup: func(t *testing.T, p *Proxy, r *systemtest.Runner) {
				r.OnExit("apt update", 100, "")
			},
			action:      (*Proxy).Enable,
			expectError: true,
			validate: func(t *testing.T, p *Proxy, r *systemtest.Runner) {
				enabled, err := p.Enabled()
				require.NoError(t, err)
				assert.True(t, enabled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := systemtest.NewRunner()
			proxy := newTestProxy(t, runner)
			if tt.setup != nil {
				tt.setup(t, proxy, runner)
			}

			err := tt.action(proxy, context.Background())
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if tt.validate != nil {
				tt.validate(t, proxy, runner)
			}
		})
	}
}

func TestProxyUpdateExitCode(t *testing.T) {
	runner := systemtest.NewRunner().OnExit("apt update", 100, "")
	proxy := newTestProxy(t, runner)

	err := proxy.Disable(context.Background())
	var exitErr *system.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 100, exitErr.Code)
}

func TestProxyRecordsChanges(t *testing.T) {
	cfg := config.Default()
	cfg.Apt.ProxyPath = filepath.Join(t.TempDir(), "99proxy")
	logger := zap.NewNop()
	collector := metrics.NewCollector(logger)
	proxy := NewProxy(cfg, systemtest.NewRunner(), collector, logger)

	require.NoError(t, proxy.Enable(context.Background()))
	require.NoError(t, proxy.Disable(context.Background()))
	require.NoError(t, proxy.Disable(context.Background()))

	expected := `
# HELP xray_setup_apt_proxy_changes_total Total number of APT proxy enable/disable operations
# TYPE xray_setup_apt_proxy_changes_total counter
xray_setup_apt_proxy_changes_total{state="disabled"} 2
xray_setup_apt_proxy_changes_total{state="enabled"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected),
		"xray_setup_apt_proxy_changes_total"))
}

func TestDirectives(t *testing.T) {
	assert.Equal(t, expectedDirectives, Directives("socks5h://127.0.0.1:10808"))
}
