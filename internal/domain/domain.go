package domain

import (
	"context"
	"time"
)

const (
	CheckStatusSuccess = "Success"
	CheckStatusFailed  = "Failed"
	CheckStatusError   = "Error"
)

// Check is the outcome of a connection test through the local SOCKS proxy.
type Check struct {
	ProxyURL  string
	Status    string
	SourceIP  string
	VPNIP     string
	Country   string
	Latency   time.Duration // round trip of the proxied lookup
	Error     error
	TimeStamp time.Time
}

type CheckResult struct {
	Check     Check
	Duration  time.Duration
	Completed time.Time
}

// Exporter pushes a finished check to an external monitor.
type Exporter interface {
	Export(ctx context.Context, check Check) error
}
