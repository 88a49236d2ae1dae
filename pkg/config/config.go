package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/Kelvi11/smart-warehouse/pkg/events"
)

// Version is set at build time with -ldflags "-X .../pkg/config.Version=...".
var Version = "dev"

// EnvPrefix prefixes every environment variable read by Load, e.g.
// WAREHOUSE_STORAGE_CONNSTRING.
const EnvPrefix = "WAREHOUSE"

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds application-wide configuration
type Config struct {
	REST    RESTConfig    `mapstructure:"rest"`
	Storage StorageConfig `mapstructure:"storage"`
	Events  events.Config `mapstructure:"events"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type RESTConfig struct {
	ListenAddr      string        `mapstructure:"listenAddr"`
	BaseURL         string        `mapstructure:"baseURL"`
	NotFoundStatus  int           `mapstructure:"notFoundStatus"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	CORSOrigins     []string      `mapstructure:"corsOrigins"`
	// BasicAuth maps usernames to passwords. When set, every API route
	// requires Basic credentials; /healthz stays open.
	BasicAuth map[string]string `mapstructure:"basicAuth"`
}

type StorageConfig struct {
	Driver         string        `mapstructure:"driver"`
	ConnString     string        `mapstructure:"connString"`
	Schema         string        `mapstructure:"schema"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
	AutoMigrate    bool          `mapstructure:"autoMigrate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// Defaults returns the configuration used for every key that is not set.
func Defaults() map[string]any {
	return map[string]any{
		"rest.listenAddr":           ":8080",
		"rest.baseURL":              "/api/v1",
		"rest.notFoundStatus":       http.StatusNotFound,
		"rest.shutdownTimeout":      "10s",
		"rest.corsOrigins":          []string{"*"},
		"storage.driver":            StoragePostgres,
		"storage.connString":        "",
		"storage.schema":            "public",
		"storage.connectTimeout":    "30s",
		"storage.autoMigrate":       false,
		"events.driver":             events.DriverNone,
		"events.nats.servers":       []string{},
		"events.nats.subjectPrefix": "warehouse",
		"events.kafka.brokers":      []string{},
		"events.kafka.topicPrefix":  "warehouse",
		"metrics.enabled":           true,
		"metrics.addr":              ":9100",
		"metrics.path":              "/metrics",
	}
}

// New returns a viper instance with defaults and environment binding set
// up. Flags may be bound to it before calling LoadFrom.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads config from file or environment
func Load(cfgFile string) (*Config, error) {
	return LoadFrom(New(), cfgFile)
}

// LoadFrom reads cfgFile, or warehouse.yaml from $HOME/.config or the
// working directory, into v and decodes the result. A missing default file
// is not an error.
func LoadFrom(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("warehouse")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.ConnString == "" {
			errs = append(errs, errors.New("storage.connString is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	switch c.Events.Driver {
	case "", events.DriverNone:
	case events.DriverNATS:
		if len(c.Events.NATS.Servers) == 0 {
			errs = append(errs, errors.New("events.nats.servers is required for the nats driver"))
		}
	case events.DriverKafka:
		if len(c.Events.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("events.kafka.brokers is required for the kafka driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown events.driver %q", c.Events.Driver))
	}

	if s := c.REST.NotFoundStatus; s != 0 && (s < 400 || s > 599) && s != http.StatusNoContent {
		errs = append(errs, fmt.Errorf("rest.notFoundStatus %d is not an error status", s))
	}
	if c.REST.BaseURL != "" && !strings.HasPrefix(c.REST.BaseURL, "/") {
		errs = append(errs, fmt.Errorf("rest.baseURL %q must start with /", c.REST.BaseURL))
	}

	return errors.Join(errs...)
}
