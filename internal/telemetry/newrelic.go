package telemetry

import (
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/AchAffand/SuratJalan-sub001/config"
)

// InitNewRelic initializes the New Relic application
func InitNewRelic(cfg config.NewRelicConfig) (*newrelic.Application, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, err
	}

	// Wait for the application to connect
	if err := app.WaitForConnection(5 * time.Second); err != nil {
		return nil, err
	}

	return app, nil
}
