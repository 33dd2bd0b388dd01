// Package uptimekuma pushes connection checks to an Uptime Kuma push monitor.
package uptimekuma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	. "xray-setup/internal/domain"
)

type Config struct {
	MonitorURL string `json:"monitor_url" validate:"required,url"`
}

type UptimeKuma struct {
	monitorURL string
	client     *http.Client
}

func New(rawConfig json.RawMessage) (Exporter, error) {
	var cfg Config
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("invalid uptime kuma config: %w", err)
	}
	if cfg.MonitorURL == "" {
		return nil, fmt.Errorf("invalid uptime kuma config: monitor_url is required")
	}
	if _, err := url.Parse(cfg.MonitorURL); err != nil {
		return nil, fmt.Errorf("invalid uptime kuma monitor url: %w", err)
	}

	return NewWithURL(cfg.MonitorURL), nil
}

func NewWithURL(monitorURL string) Exporter {
	return &UptimeKuma{
		monitorURL: monitorURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Export reports "up" when the traffic left through the tunnel and "down"
// otherwise.
func (u *UptimeKuma) Export(ctx context.Context, check Check) error {
	pushURL, err := u.pushURL(check)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pushURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push rejected: %s", resp.Status)
	}
	return nil
}

func (u *UptimeKuma) pushURL(check Check) (string, error) {
	parsed, err := url.Parse(u.monitorURL)
	if err != nil {
		return "", fmt.Errorf("invalid monitor url: %w", err)
	}

	query := parsed.Query()
	if check.Status == CheckStatusSuccess {
		query.Set("status", "up")
		query.Set("msg", "OK "+check.VPNIP)
	} else {
		query.Set("status", "down")
		query.Set("msg", message(check))
	}
	if check.Latency > 0 {
		query.Set("ping", strconv.FormatInt(check.Latency.Milliseconds(), 10))
	}

	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func message(check Check) string {
	if check.Error != nil {
		return check.Error.Error()
	}
	return fmt.Sprintf("%s: proxied IP %s equals direct IP", check.Status, check.VPNIP)
}
