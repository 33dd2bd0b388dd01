package checker

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// IPChecker defines the interface for IP checking operations
type IPChecker interface {
	DirectIP(ctx context.Context) (string, error)
	ProxiedIP(ctx context.Context, proxyURL string) (string, error)
}

type defaultIPChecker struct {
	checkURL string
	timeout  time.Duration
	client   *http.Client
}

func NewIPChecker(checkURL string, timeout time.Duration) IPChecker {
	return &defaultIPChecker{
		checkURL: checkURL,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *defaultIPChecker) DirectIP(ctx context.Context) (string, error) {
	return c.getIPUsingClient(ctx, c.client)
}

// ProxiedIP asks the IP service through a SOCKS5 proxy, e.g.
// socks5://127.0.0.1:10808.
func (c *defaultIPChecker) ProxiedIP(ctx context.Context, proxyURL string) (string, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return "", fmt.Errorf("invalid proxy address: %w", err)
	}

	dialer, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return "", fmt.Errorf("unsupported proxy address %s: %w", proxyURL, err)
	}

	transport := &http.Transport{DisableKeepAlives: true}
	if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = contextDialer.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
	}

	return c.getIPUsingClient(ctx, client)
}

func (c *defaultIPChecker) getIPUsingClient(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.checkURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	// ifconfig.me answers curl with the bare address
	req.Header.Set("User-Agent", "curl/8.5.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get IP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status from %s: %s", c.checkURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return strings.TrimSpace(string(body)), nil
}
