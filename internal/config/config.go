package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config covers every service in the repo; each binary reads its own slice.
type Config struct {
	App struct {
		Env    string `koanf:"env"` // "development" | "production"
		LogDir string `koanf:"log_dir"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout    time.Duration `koanf:"read_timeout"`
		WriteTimeout   time.Duration `koanf:"write_timeout"`
		IdleTimeout    time.Duration `koanf:"idle_timeout"`
		RequestTimeout time.Duration `koanf:"request_timeout"`
	} `koanf:"http"`

	Gateway struct {
		Addr           string            `koanf:"addr"`
		Backends       map[string]string `koanf:"backends"` // prefix -> base URL
		BackendTimeout time.Duration     `koanf:"backend_timeout"`
		SessionTTL     time.Duration     `koanf:"session_ttl"`
		RateLimit      struct {
			Max    int           `koanf:"max"`
			Window time.Duration `koanf:"window"`
		} `koanf:"rate_limit"`
	} `koanf:"gateway"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Mongo struct {
		URI         string `koanf:"uri"`
		Database    string `koanf:"database"`
		MaxPoolSize uint64 `koanf:"max_pool_size"`
		MinPoolSize uint64 `koanf:"min_pool_size"`
	} `koanf:"mongo"`

	Kafka struct {
		Brokers []string `koanf:"brokers"` // empty disables event publishing
		Topic   string   `koanf:"topic"`
	} `koanf:"kafka"`

	Orders struct {
		Addr          string        `koanf:"addr"`
		DSN           string        `koanf:"dsn"`
		MigrationsDir string        `koanf:"migrations_dir"`
		CartURL       string        `koanf:"cart_url"`
		CatalogURL    string        `koanf:"catalog_url"`
		CallTimeout   time.Duration `koanf:"call_timeout"`
	} `koanf:"orders"`

	Cart struct {
		Addr        string        `koanf:"addr"`
		CatalogURL  string        `koanf:"catalog_url"`
		CallTimeout time.Duration `koanf:"call_timeout"`
	} `koanf:"cart"`

	Catalog struct {
		Addr          string `koanf:"addr"`
		DSN           string `koanf:"dsn"`
		MigrationsDir string `koanf:"migrations_dir"`
	} `koanf:"catalog"`

	Users struct {
		Addr          string `koanf:"addr"`
		DSN           string `koanf:"dsn"`
		MigrationsDir string `koanf:"migrations_dir"`
	} `koanf:"users"`

	Otel struct {
		Endpoint string `koanf:"endpoint"` // empty disables tracing
	} `koanf:"otel"`
}

// Load reads <pathDir>/base.yaml, overlays <pathDir>/<envName>.yaml when it
// exists, then overlays environment variables with the STORE_ prefix
// (nested keys join with __, e.g. STORE_REDIS__ADDR).
func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// env-specific overlay is optional for local runs
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	if err := k.Load(env.Provider("STORE_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "STORE_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Gateway.Addr == "" {
		return fmt.Errorf("gateway.addr required")
	}
	if len(c.Gateway.Backends) == 0 {
		return fmt.Errorf("gateway.backends required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr required")
	}
	if c.Orders.DSN == "" {
		return fmt.Errorf("orders.dsn required")
	}
	return nil
}
