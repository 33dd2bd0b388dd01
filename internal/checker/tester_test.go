package checker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"xray-setup/internal/config"
	"xray-setup/internal/domain"
	"xray-setup/internal/exporter"
	"xray-setup/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIPChecker struct {
	mu           sync.Mutex
	directIPs    []string
	directErrs   []error
	proxiedIP    string
	proxiedErr   error
	directCalls  int
	proxiedCalls int
	lastProxyURL string
}

func (f *fakeIPChecker) DirectIP(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.directCalls
	f.directCalls++
	if i < len(f.directErrs) && f.directErrs[i] != nil {
		return "", f.directErrs[i]
	}
	if i < len(f.directIPs) {
		return f.directIPs[i], nil
	}
	return f.directIPs[len(f.directIPs)-1], nil
}

func (f *fakeIPChecker) ProxiedIP(_ context.Context, proxyURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proxiedCalls++
	f.lastProxyURL = proxyURL
	return f.proxiedIP, f.proxiedErr
}

type fakeCountry struct {
	country string
	err     error
}

func (f fakeCountry) Country(string) (string, error) { return f.country, f.err }
func (f fakeCountry) Close() error                   { return nil }

type recordingExporter struct {
	checks []domain.Check
}

func (r *recordingExporter) Export(_ context.Context, check domain.Check) {
	r.checks = append(r.checks, check)
}

func newTestTester(ipChecker IPChecker, geo CountryLookup, exporter ResultExporter) (*Tester, *metrics.Collector) {
	cfg := config.Default()
	cfg.Check.Retries = 3
	cfg.Check.RetryDelay = 1

	logger := zap.NewNop()
	collector := metrics.NewCollector(logger)
	return NewTester(cfg, ipChecker, geo, exporter, collector, logger), collector
}

func TestTester(t *testing.T) {
	tests := []struct {
		name        string
		checker     *fakeIPChecker
		geo         CountryLookup
		expectError bool
		validate    func(*testing.T, domain.CheckResult, *fakeIPChecker)
	}{
		{
			name:    "Different IPs succeed",
			checker: &fakeIPChecker{directIPs: []string{"1.1.1.1"}, proxiedIP: "2.2.2.2"},
			geo:     fakeCountry{country: "DE"},
			validate: func(t *testing.T, r domain.CheckResult, f *fakeIPChecker) {
				assert.Equal(t, domain.CheckStatusSuccess, r.Check.Status)
				assert.Equal(t, "1.1.1.1", r.Check.SourceIP)
				assert.Equal(t, "2.2.2.2", r.Check.VPNIP)
				assert.Equal(t, "DE", r.Check.Country)
				assert.Equal(t, "socks5://127.0.0.1:10808", f.lastProxyURL)
				assert.False(t, r.Check.TimeStamp.IsZero())
				assert.False(t, r.Completed.IsZero())
			},
		},
		{
			name:    "Same IP means the tunnel is not used",
			checker: &fakeIPChecker{directIPs: []string{"1.1.1.1"}, proxiedIP: "1.1.1.1"},
			geo:     fakeCountry{err: errors.New("no record")},
			validate: func(t *testing.T, r domain.CheckResult, f *fakeIPChecker) {
				assert.Equal(t, domain.CheckStatusFailed, r.Check.Status)
				assert.Empty(t, r.Check.Country)
			},
		},
		{
			name: "Direct lookup is retried",
			checker: &fakeIPChecker{
				directIPs:  []string{"", "", "1.1.1.1"},
				directErrs: []error{errors.New("timeout"), errors.New("timeout")},
				proxiedIP:  "2.2.2.2",
			},
			geo: noopLookup{},
			validate: func(t *testing.T, r domain.CheckResult, f *fakeIPChecker) {
				assert.Equal(t, domain.CheckStatusSuccess, r.Check.Status)
				assert.Equal(t, 3, f.directCalls)
			},
		},
		{
			name:        "Proxy failure after retries",
			checker:     &fakeIPChecker{directIPs: []string{"1.1.1.1"}, proxiedErr: errors.New("connection refused")},
			geo:         noopLookup{},
			expectError: true,
			validate: func(t *testing.T, r domain.CheckResult, f *fakeIPChecker) {
				assert.Equal(t, domain.CheckStatusError, r.Check.Status)
				assert.Equal(t, 3, f.proxiedCalls)

				var checkErr *CheckError
				require.True(t, errors.As(r.Check.Error, &checkErr))
				assert.Equal(t, StageProxy, checkErr.Stage)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &recordingExporter{}
			tester, _ := newTestTester(tt.checker, tt.geo, recorder)

			result, err := tester.Test(context.Background())
			if tt.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, recorder.checks, 1)
			assert.Equal(t, result.Check.Status, recorder.checks[0].Status)

			if tt.validate != nil {
				tt.validate(t, result, tt.checker)
			}
		})
	}
}

func TestTesterPushesThroughManager(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{name: "Push accepted", statusCode: http.StatusOK},
		{name: "Push rejected does not fail check", statusCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var statuses []string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				statuses = append(statuses, r.URL.Query().Get("status"))
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			cfg := config.Default()
			raw, err := json.Marshal(map[string]string{"type": "uptime-kuma", "monitor_url": server.URL})
			require.NoError(t, err)
			cfg.Exporters = []config.ExporterConfig{{Type: config.ExporterTypeUptimeKuma, Raw: raw}}

			manager, err := exporter.NewManager(cfg, zap.NewNop())
			require.NoError(t, err)

			tester, collector := newTestTester(
				&fakeIPChecker{directIPs: []string{"1.1.1.1"}, proxiedIP: "2.2.2.2"},
				noopLookup{},
				manager,
			)

			result, err := tester.Test(context.Background())
			require.NoError(t, err)
			assert.Equal(t, domain.CheckStatusSuccess, result.Check.Status)
			assert.Equal(t, []string{"up"}, statuses)
			assert.Equal(t, 1, testutil.CollectAndCount(collector.Registry(), "xray_setup_connection_checks_total"))
		})
	}
}
