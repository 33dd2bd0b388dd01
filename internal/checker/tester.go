package checker

import (
	"context"
	"time"
	"xray-setup/internal/config"
	"xray-setup/internal/domain"
	"xray-setup/internal/xray"

	"go.uber.org/zap"
)

// ResultExporter publishes a finished check. Failures are handled by the
// implementation.
type ResultExporter interface {
	Export(ctx context.Context, check domain.Check)
}

// Tester compares the direct public IP with the one seen through the local
// SOCKS inbound.
type Tester struct {
	checker    IPChecker
	geo        CountryLookup
	exporter   ResultExporter
	metrics    domain.MetricsCollector
	logger     *zap.Logger
	proxyURL   string
	retryCount int
	retryDelay time.Duration
	timeout    time.Duration
}

func NewTester(
	cfg *config.Config,
	checker IPChecker,
	geo CountryLookup,
	exporter ResultExporter,
	metrics domain.MetricsCollector,
	logger *zap.Logger,
) *Tester {
	return &Tester{
		checker:    checker,
		geo:        geo,
		exporter:   exporter,
		metrics:    metrics,
		logger:     logger.With(zap.String("component", "checker")),
		proxyURL:   xray.SocksProxyURL("socks5"),
		retryCount: cfg.Check.Retries,
		retryDelay: cfg.Check.RetryDelayDuration(),
		timeout:    cfg.Check.TimeoutDuration(),
	}
}

// Test runs one connection check. The returned result is also exported and
// recorded; on failure Check.Error is set as well as the returned error.
func (t *Tester) Test(ctx context.Context) (result domain.CheckResult, err error) {
	result = domain.CheckResult{
		Check: domain.Check{
			ProxyURL: t.proxyURL,
			Status:   domain.CheckStatusError,
		},
	}
	start := time.Now()

	defer func() {
		result.Check.TimeStamp = start
		result.Duration = time.Since(start)
		result.Completed = time.Now()
		t.exporter.Export(ctx, result.Check)
		t.metrics.RecordCheck(result)
	}()

	// Overall deadline covering retries of both lookups
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Duration(t.retryCount)*(t.timeout+t.retryDelay))
	defer cancel()

	sourceIP, err := t.withRetry(checkCtx, "source IP", t.checker.DirectIP)
	if err != nil {
		result.Check.Error = NewCheckError(StageSource, "failed to get source IP", err)
		return result, result.Check.Error
	}
	result.Check.SourceIP = sourceIP

	proxiedStart := time.Now()
	vpnIP, err := t.withRetry(checkCtx, "VPN IP", func(ctx context.Context) (string, error) {
		return t.checker.ProxiedIP(ctx, t.proxyURL)
	})
	if err != nil {
		result.Check.Error = NewCheckError(StageProxy, "failed to get VPN IP", err)
		return result, result.Check.Error
	}
	result.Check.VPNIP = vpnIP
	result.Check.Latency = time.Since(proxiedStart)

	if country, err := t.geo.Country(vpnIP); err != nil {
		t.logger.Debug("country lookup failed", zap.String("ip", vpnIP), zap.Error(err))
	} else {
		result.Check.Country = country
	}

	if result.Check.VPNIP != result.Check.SourceIP {
		result.Check.Status = domain.CheckStatusSuccess
	} else {
		result.Check.Status = domain.CheckStatusFailed
	}

	t.logger.Info("connection check finished",
		zap.String("status", result.Check.Status),
		zap.String("source_ip", sourceIP),
		zap.String("vpn_ip", vpnIP))

	return result, nil
}

func (t *Tester) withRetry(ctx context.Context, what string, fn func(context.Context) (string, error)) (string, error) {
	var ip string
	var err error
	for attempt := 0; attempt < t.retryCount; attempt++ {
		if attempt > 0 {
			t.logger.Debug("retrying "+what+" check", zap.Int("attempt", attempt+1))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(t.retryDelay):
			}
		}

		ip, err = fn(ctx)
		if err == nil {
			return ip, nil
		}
	}
	return "", err
}

