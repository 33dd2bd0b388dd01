// Package apt toggles system-wide APT proxying through the local SOCKS inbound.
package apt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"xray-setup/internal/config"
	"xray-setup/internal/domain"
	"xray-setup/internal/system"
	"xray-setup/internal/xray"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(NewProxy),
)

// Directives returns the apt.conf content routing both http and https
// repositories through proxyURL.
func Directives(proxyURL string) string {
	return fmt.Sprintf("Acquire::http::Proxy %q;\nAcquire::https::Proxy %q;\n", proxyURL, proxyURL)
}

type Proxy struct {
	path    string
	runner  system.CommandRunner
	metrics domain.MetricsCollector
	logger  *zap.Logger
}

func NewProxy(
	cfg *config.Config,
	runner system.CommandRunner,
	metrics domain.MetricsCollector,
	logger *zap.Logger,
) *Proxy {
	return &Proxy{
		path:    cfg.Apt.ProxyPath,
		runner:  runner,
		metrics: metrics,
		logger:  logger.With(zap.String("component", "apt")),
	}
}

func (p *Proxy) Path() string {
	return p.path
}

// Enable writes the proxy directive file and refreshes the package index.
func (p *Proxy) Enable(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("failed to create apt config directory: %w", err)
	}

	content := Directives(xray.SocksProxyURL("socks5h"))
	if err := os.WriteFile(p.path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write apt proxy file: %w", err)
	}

	p.metrics.RecordAptProxy(true)
	p.logger.Info("apt proxy enabled", zap.String("path", p.path))

	return p.update(ctx)
}

// Disable removes the proxy directive file if present and refreshes the
// package index either way.
func (p *Proxy) Disable(ctx context.Context) error {
	err := os.Remove(p.path)
	switch {
	case err == nil:
		p.logger.Info("apt proxy disabled", zap.String("path", p.path))
	case errors.Is(err, os.ErrNotExist):
		p.logger.Debug("apt proxy file already absent", zap.String("path", p.path))
	default:
		return fmt.Errorf("failed to remove apt proxy file: %w", err)
	}

	p.metrics.RecordAptProxy(false)
	return p.update(ctx)
}

// Enabled reports whether the proxy directive file exists.
func (p *Proxy) Enabled() (bool, error) {
	_, err := os.Stat(p.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat apt proxy file: %w", err)
	}
}

func (p *Proxy) update(ctx context.Context) error {
	if _, err := p.runner.Run(ctx, "apt", "update"); err != nil {
		p.logger.Warn("package index refresh failed", zap.Error(err))
		return fmt.Errorf("apt update failed: %w", err)
	}
	return nil
}
