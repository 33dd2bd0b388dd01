// Package console implements the interactive commands and the text menu.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"xray-setup/internal/apt"
	"xray-setup/internal/checker"
	"xray-setup/internal/domain"
	"xray-setup/internal/installer"
	"xray-setup/internal/link"
	"xray-setup/internal/system"
	"xray-setup/internal/xray"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// PrivilegeCheck fails when the process lacks the rights to manage the host.
type PrivilegeCheck func() error

// Streams are the user facing input and outputs, separate from logs.
type Streams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

type Params struct {
	fx.In

	Streams    Streams
	Privileges PrivilegeCheck
	Xray       *xray.Service
	Apt        *apt.Proxy
	Installer  *installer.Installer
	Tester     *checker.Tester
	Metrics    domain.MetricsCollector
	Logger     *zap.Logger
}

// Controller carries out the menu commands. Every method prints its outcome
// to the output stream and returns the error, if any, for the caller to show.
type Controller struct {
	out        io.Writer
	errOut     io.Writer
	privileges PrivilegeCheck
	xray       *xray.Service
	apt        *apt.Proxy
	installer  *installer.Installer
	tester     *checker.Tester
	metrics    domain.MetricsCollector
	logger     *zap.Logger
}

func NewController(p Params) *Controller {
	return &Controller{
		out:        p.Streams.Out,
		errOut:     p.Streams.ErrOut,
		privileges: p.Privileges,
		xray:       p.Xray,
		apt:        p.Apt,
		installer:  p.Installer,
		tester:     p.Tester,
		metrics:    p.Metrics,
		logger:     p.Logger.With(zap.String("component", "console")),
	}
}

func (c *Controller) CheckPrivileges() error {
	return c.privileges()
}

// Bootstrap checks privileges and prepares the host. A failed installation
// is reported but does not stop the caller.
func (c *Controller) Bootstrap(ctx context.Context) error {
	if err := c.privileges(); err != nil {
		return err
	}
	return c.install(ctx, false)
}

// Install runs the installation sequence and fails on any step error.
func (c *Controller) Install(ctx context.Context) error {
	if err := c.privileges(); err != nil {
		return err
	}
	return c.install(ctx, true)
}

func (c *Controller) install(ctx context.Context, strict bool) error {
	if c.installer.Skipped() {
		c.logger.Debug("installation skipped")
		return nil
	}
	fmt.Fprintln(c.out, "Installing basic dependencies...")

	report, err := c.installer.Run(ctx, c.errOut)
	if err != nil {
		c.commandOutput(err)
		if strict {
			return err
		}
		c.logger.Warn("installation incomplete", zap.Error(err))
		fmt.Fprintln(c.errOut, "Warning: installation incomplete:", err)
		return nil
	}

	if report.PackagesInstalled {
		fmt.Fprintln(c.out, "Base dependencies installed.")
	}
	switch {
	case report.XrayInstalled:
		fmt.Fprintln(c.out, "Xray installed.")
	case report.XrayPresent:
		fmt.Fprintln(c.out, "Xray already installed.")
	}
	return nil
}

func (c *Controller) parse(shareLink string) (domain.ParsedLink, error) {
	parsed, err := link.Parse(strings.TrimSpace(shareLink))
	if err != nil {
		c.metrics.RecordParseError()
		return domain.ParsedLink{}, err
	}
	return parsed, nil
}

// SetConfig applies shareLink and prints the daemon status afterwards.
func (c *Controller) SetConfig(ctx context.Context, shareLink string) error {
	parsed, err := c.parse(shareLink)
	if err != nil {
		return err
	}

	report, err := c.xray.Apply(ctx, parsed)
	if err != nil {
		return err
	}

	if report != "" {
		fmt.Fprintln(c.out, report)
	}
	fmt.Fprintln(c.out, "Config set successfully.")
	return nil
}

// Render prints the document for shareLink without touching the host.
func (c *Controller) Render(shareLink string) error {
	parsed, err := c.parse(shareLink)
	if err != nil {
		return err
	}

	data, err := xray.GenerateConfig(parsed)
	if err != nil {
		return err
	}

	_, err = c.out.Write(data)
	return err
}

func (c *Controller) TestConnection(ctx context.Context) error {
	fmt.Fprintf(c.out, "Testing connection through %s...\n", xray.SocksProxyURL("socks5"))

	result, err := c.tester.Test(ctx)
	if err != nil {
		return err
	}

	check := result.Check
	fmt.Fprintf(c.out, "Direct IP:  %s\n", check.SourceIP)
	if check.Country != "" {
		fmt.Fprintf(c.out, "Proxied IP: %s (%s)\n", check.VPNIP, check.Country)
	} else {
		fmt.Fprintf(c.out, "Proxied IP: %s\n", check.VPNIP)
	}

	switch check.Status {
	case domain.CheckStatusSuccess:
		fmt.Fprintf(c.out, "Connection OK (%s).\n", check.Latency.Round(time.Millisecond))
	default:
		fmt.Fprintln(c.out, "Traffic is not going through the proxy: both IPs are the same.")
	}
	return nil
}

func (c *Controller) EnableAptProxy(ctx context.Context) error {
	if err := c.apt.Enable(ctx); err != nil {
		c.commandOutput(err)
		return err
	}
	fmt.Fprintf(c.out, "APT proxy enabled (%s).\n", c.apt.Path())
	return nil
}

func (c *Controller) DisableAptProxy(ctx context.Context) error {
	if err := c.apt.Disable(ctx); err != nil {
		c.commandOutput(err)
		return err
	}
	fmt.Fprintln(c.out, "APT proxy disabled.")
	return nil
}

// commandOutput shows what a failed external command printed.
func (c *Controller) commandOutput(err error) {
	if output := strings.TrimRight(system.CommandOutput(err), "\n"); output != "" {
		fmt.Fprintln(c.errOut, output)
	}
}

// Status prints the daemon state, the configuration file and the APT proxy
// state.
func (c *Controller) Status(ctx context.Context) error {
	configPresent, err := c.xray.ConfigExists()
	if err != nil {
		return err
	}
	aptEnabled, err := c.apt.Enabled()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Xray service (%s):\t%s\n", c.xray.Unit(), c.xray.State(ctx))
	fmt.Fprintf(w, "Xray config:\t%s (%s)\n", c.xray.ConfigPath(), presence(configPresent))
	fmt.Fprintf(w, "APT proxy:\t%s (%s)\n", enabled(aptEnabled), c.apt.Path())
	return w.Flush()
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}

func enabled(ok bool) string {
	if ok {
		return "enabled"
	}
	return "disabled"
}

var _ Handler = (*Controller)(nil)
