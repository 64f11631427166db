// Package config loads the simdeck.yaml configuration file. Values pass
// through a fixed pipeline: read, environment variable substitution, YAML
// decode, struct-tag defaults, validation. A missing file is not an error;
// the defaults describe a working single-machine setup.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	registerCustomValidators()
}

// Config is the full simdeck.yaml structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Scenarios ScenarioConfig  `yaml:"scenarios"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address, host optional (":8420" binds all
	// interfaces).
	Addr string `yaml:"addr" default:"localhost:8420" validate:"listen_addr"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Driver is "badger" (embedded, default) or "postgres".
	Driver string `yaml:"driver" default:"badger" validate:"oneof=badger postgres"`

	// Path is the Badger database directory.
	Path string `yaml:"path" default:"simdeck-data"`

	// SyncWrites forces Badger to fsync each write.
	SyncWrites bool `yaml:"sync_writes"`

	// DSN is the Postgres connection string, required when the driver is
	// postgres. Typically set as ${SIMDECK_DSN} in the config file.
	DSN string `yaml:"dsn" validate:"omitempty,dsn"`
}

// TelemetryConfig configures OTLP export. An empty endpoint disables it.
type TelemetryConfig struct {
	Endpoint       string `yaml:"endpoint" validate:"omitempty,listen_addr"`
	Insecure       bool   `yaml:"insecure" default:"true"`
	ServiceName    string `yaml:"service_name" default:"simdeck"`
	ServiceVersion string `yaml:"service_version" default:"dev"`
}

// ScenarioConfig locates the scenario library.
type ScenarioConfig struct {
	Dir string `yaml:"dir" default:"scenarios"`
}

// Load builds the config from the file at path. An empty path falls back to
// simdeck.yaml in the working directory; if that file does not exist, the
// defaults are used as-is. An explicit path that cannot be read is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = "simdeck.yaml"
	}

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		data, err = Substitute(data)
		if err != nil {
			return nil, fmt.Errorf("error substituting config values: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file; defaults carry the whole setup.
	default:
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("error applying config defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the assembled config, including cross-field rules the tag
// validators cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			e := errs[0]
			return fmt.Errorf("invalid config: field %s failed %q validation (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return fmt.Errorf("invalid config: store.dsn is required when store.driver is postgres")
	}
	return nil
}

func registerCustomValidators() {
	// listen_addr validates "host:port" with a numeric port; the host may
	// be empty to bind all interfaces.
	validate.RegisterValidation("listen_addr", func(fl validator.FieldLevel) bool {
		_, port, err := net.SplitHostPort(fl.Field().String())
		if err != nil || port == "" {
			return false
		}
		_, err = net.LookupPort("tcp", port)
		return err == nil
	})

	// dsn validates a database connection string: URL form
	// (postgres://...) or the key=value form lib/pq also accepts.
	validate.RegisterValidation("dsn", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
			return true
		}
		// key=value form needs at least one pair.
		for _, field := range strings.Fields(s) {
			if k, _, ok := strings.Cut(field, "="); ok && k != "" {
				return true
			}
		}
		return false
	})
}
