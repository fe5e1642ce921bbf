package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/akave-ai/udplog/internal/address"
)

const (
	EnvPrefix         = "UDPLOG_"
	DefaultConfigFile = "config.txt"
)

var ErrConfigNotFound = errors.New("config file not found")

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Service       ServiceConfig        `koanf:"service" validate:"required"`
	Sink          SinkConfig           `koanf:"sink" validate:"required"`
	Ingest        IngestConfig         `koanf:"ingest" validate:"required"`
	Admin         AdminConfig          `koanf:"admin"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig is the UDP address the service binds.
type ServerConfig struct {
	IP   string `koanf:"ip" validate:"required,dottedquad"`
	Port int    `koanf:"port" validate:"required,userport"`
}

type ServiceConfig struct {
	Name string `koanf:"name" validate:"required"`
}

type SinkConfig struct {
	Path string `koanf:"path" validate:"required"`
	Sync bool   `koanf:"sync"`
}

type IngestConfig struct {
	RateLimit       int           `koanf:"rate_limit" validate:"min=1"`
	RateWindow      time.Duration `koanf:"rate_window" validate:"gt=0"`
	MaxClients      int           `koanf:"max_clients" validate:"min=1"`
	ClientIdleTTL   time.Duration `koanf:"client_idle_ttl" validate:"gte=0"`
	Workers         int           `koanf:"workers" validate:"min=1,max=256"`
	QueueSize       int           `koanf:"queue_size" validate:"min=1"`
	MaxDatagramSize int           `koanf:"max_datagram_size" validate:"min=1,max=65507"`
	HTTPPath        string        `koanf:"http_path"`
}

type AdminConfig struct {
	Listen string `koanf:"listen" validate:"omitempty,hostname_port"`
}

// Defaults are loaded before any file or environment value.
func Defaults() map[string]any {
	return map[string]any{
		"primary.env":                         "development",
		"service.name":                        "LoggingService",
		"sink.path":                           "logs.txt",
		"sink.sync":                           false,
		"ingest.rate_limit":                   5,
		"ingest.rate_window":                  "1s",
		"ingest.max_clients":                  65536,
		"ingest.client_idle_ttl":              "1m",
		"ingest.workers":                      1,
		"ingest.queue_size":                   1024,
		"ingest.max_datagram_size":            65507,
		"observability.log_level":             "info",
		"observability.log_format":            LogFormatConsole,
		"observability.new_relic_license_key": "",
	}
}

// legacyKeys maps the flat camelCase names used by plain config.txt files.
var legacyKeys = map[string]string{
	"serverip":    "server.ip",
	"serverport":  "server.port",
	"logfile":     "sink.path",
	"ratelimit":   "ingest.rate_limit",
	"buffersize":  "ingest.max_datagram_size",
	"servicename": "service.name",
}

// normalizeKey turns SERVER_PORT, server_port, server.port or serverPort into server.port.
// The first underscore separates the section from the field.
func normalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if mapped, ok := legacyKeys[k]; ok {
		return mapped
	}
	if strings.Contains(k, ".") {
		return k
	}
	return strings.Replace(k, "_", ".", 1)
}

// LoadConfig reads defaults, then the key=value file at path, then UDPLOG_* environment
// variables, and validates the result. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		values, err := readKeyValueFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return normalizeKey(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Observability is a pointer so a caller building Config by hand can leave it nil.
	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}
	mainConfig.Observability.ServiceName = "udplog"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Validate(); err != nil {
		return nil, err
	}
	return mainConfig, nil
}

func readKeyValueFile(path string) (map[string]any, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	raw, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	values := make(map[string]any, len(raw))
	for key, v := range raw {
		values[normalizeKey(key)] = strings.TrimSpace(v)
	}
	return values, nil
}

// Validate checks struct tags, including the dottedquad and userport rules.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Observability != nil {
		if err := c.Observability.Validate(); err != nil {
			return fmt.Errorf("invalid observability config: %w", err)
		}
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("dottedquad", func(fl validator.FieldLevel) bool {
		return address.ValidIP(fl.Field().String())
	})
	_ = v.RegisterValidation("userport", func(fl validator.FieldLevel) bool {
		return address.ValidPort(int(fl.Field().Int()))
	})
	return v
}
