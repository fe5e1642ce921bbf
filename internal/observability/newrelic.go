// Package observability wires the optional New Relic agent.
package observability

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/akave-ai/udplog/internal/config"
)

// NewRelic returns an agent application, or nil when no license key is configured.
// A nil *newrelic.Application is safe to use: transactions started from it are no-ops.
func NewRelic(cfg *config.ObservabilityConfig) (*newrelic.Application, error) {
	if cfg == nil || cfg.NewRelicLicenseKey == "" {
		return nil, nil
	}
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.ServiceName),
		newrelic.ConfigLicense(cfg.NewRelicLicenseKey),
		newrelic.ConfigDistributedTracerEnabled(false),
		func(c *newrelic.Config) {
			c.Labels = map[string]string{"env": cfg.Environment}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("new relic: %w", err)
	}
	return app, nil
}

// Shutdown flushes pending agent data. Safe on nil.
func Shutdown(app *newrelic.Application, timeout time.Duration) {
	if app == nil {
		return
	}
	app.Shutdown(timeout)
}
