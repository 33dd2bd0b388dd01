package metrics

import (
	"context"
	"fmt"
	"xray-setup/internal/config"
	"xray-setup/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the metrics collector
var Module = fx.Options(
	fx.Provide(NewCollector),
	fx.Provide(func(c *Collector) domain.MetricsCollector { return c }),
	fx.Invoke(registerHooks),
)

// registerHooks flushes the collected metrics to the node_exporter textfile
// directory when the application stops.
func registerHooks(lc fx.Lifecycle, c *Collector, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if cfg.Metrics.TextfilePath == "" {
				return nil
			}
			return c.WriteTextfile(cfg.Metrics.TextfilePath)
		},
	})
}

type Collector struct {
	logger          *zap.Logger
	registry        *prometheus.Registry
	configApplies   *prometheus.CounterVec
	parseErrors     prometheus.Counter
	serviceRestarts *prometheus.CounterVec
	aptProxyChanges *prometheus.CounterVec
	checksTotal     *prometheus.CounterVec
	checksDuration  prometheus.Histogram
	lastCheckStatus prometheus.Gauge
	commandsTotal   *prometheus.CounterVec
}

// NewCollector registers all metrics in a private registry, so several
// collectors can coexist in one process.
func NewCollector(logger *zap.Logger) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		logger:   logger,
		registry: registry,
		configApplies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xray_setup_config_applies_total",
				Help: "Total number of configuration applies",
			},
			[]string{"result"},
		),
		parseErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "xray_setup_link_parse_errors_total",
				Help: "Total number of rejected share-links",
			},
		),
		serviceRestarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xray_setup_service_restarts_total",
				Help: "Total number of Xray service restarts",
			},
			[]string{"result"},
		),
		aptProxyChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xray_setup_apt_proxy_changes_total",
				Help: "Total number of APT proxy enable/disable operations",
			},
			[]string{"state"},
		),
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xray_setup_connection_checks_total",
				Help: "Total number of connection checks performed",
			},
			[]string{"status"},
		),
		checksDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "xray_setup_connection_check_duration_seconds",
				Help:    "Duration of connection checks",
				Buckets: prometheus.DefBuckets,
			},
		),
		lastCheckStatus: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "xray_setup_connection_check_status",
				Help: "Latest check status (1 for success, 0 for failure)",
			},
		),
		commandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xray_setup_commands_total",
				Help: "Total number of external commands run",
			},
			[]string{"command", "result"},
		),
	}
}

func (c *Collector) RecordCheck(result domain.CheckResult) {
	c.checksTotal.WithLabelValues(result.Check.Status).Inc()
	c.checksDuration.Observe(result.Duration.Seconds())

	status := 0.0
	if result.Check.Status == domain.CheckStatusSuccess {
		status = 1.0
	}
	c.lastCheckStatus.Set(status)
}

func (c *Collector) RecordConfigApply(err error) {
	c.configApplies.WithLabelValues(resultLabel(err)).Inc()
}

func (c *Collector) RecordParseError() {
	c.parseErrors.Inc()
}

func (c *Collector) RecordServiceRestart(err error) {
	c.serviceRestarts.WithLabelValues(resultLabel(err)).Inc()
}

func (c *Collector) RecordAptProxy(enabled bool) {
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	c.aptProxyChanges.WithLabelValues(state).Inc()
}

func (c *Collector) RecordCommand(name string, err error) {
	c.commandsTotal.WithLabelValues(name, resultLabel(err)).Inc()
}

// Registry exposes the private registry, mostly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes all metrics in the text exposition format. The write
// goes through a temporary file so node_exporter never reads a partial file.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	c.logger.Debug("wrote metrics textfile", zap.String("path", path))
	return nil
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
