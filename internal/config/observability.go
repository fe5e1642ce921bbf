package config

import "fmt"

const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

type ObservabilityConfig struct {
	ServiceName        string `koanf:"service_name"`
	Environment        string `koanf:"environment"`
	LogLevel           string `koanf:"log_level"`
	LogFormat          string `koanf:"log_format"`
	NewRelicLicenseKey string `koanf:"new_relic_license_key"`
}

func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		ServiceName: "udplog",
		Environment: "development",
		LogLevel:    "info",
		LogFormat:   LogFormatConsole,
	}
}

func (o *ObservabilityConfig) Validate() error {
	switch o.LogLevel {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown log level %q", o.LogLevel)
	}
	if o.LogFormat != LogFormatConsole && o.LogFormat != LogFormatJSON {
		return fmt.Errorf("unknown log format %q", o.LogFormat)
	}
	return nil
}
