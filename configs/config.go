package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SHOPFLOW_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		RequestTimeout  time.Duration `koanf:"request_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	API struct {
		BaseURL string        `koanf:"base_url"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"api"`

	Breaker struct {
		MaxRequests uint32        `koanf:"max_requests"`
		Interval    time.Duration `koanf:"interval"`
		Timeout     time.Duration `koanf:"timeout"`
		Failures    uint32        `koanf:"failures"`
	} `koanf:"breaker"`

	Storage struct {
		Driver        string `koanf:"driver"`
		SQLitePath    string `koanf:"sqlite_path"`
		RedisAddr     string `koanf:"redis_addr"`
		RedisPassword string `koanf:"redis_password"`
		RedisPrefix   string `koanf:"redis_prefix"`
		MongoURI      string `koanf:"mongo_uri"`
		MongoDB       string `koanf:"mongo_db"`
	} `koanf:"storage"`

	Checkout struct {
		RequireExplicitAddressConfirmation bool   `koanf:"require_explicit_address_confirmation"`
		PaymentMethod                      string `koanf:"payment_method"`
	} `koanf:"checkout"`

	Kafka struct {
		Brokers     []string `koanf:"brokers"`
		TopicEvents string   `koanf:"topic_events"`
	} `koanf:"kafka"`
}

// Load reads <dir>/base.yaml, an optional <dir>/<envName>.yaml and then
// SHOPFLOW_ environment variables, nested with "__"
// (SHOPFLOW_API__BASE_URL, SHOPFLOW_STORAGE__DRIVER).
func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	if envName != "" {
		_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
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
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url required")
	}
	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path required for sqlite driver")
		}
	case "redis":
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr required for redis driver")
		}
	case "mongo":
		if c.Storage.MongoURI == "" || c.Storage.MongoDB == "" {
			return fmt.Errorf("storage.mongo_uri and storage.mongo_db required for mongo driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.TopicEvents == "" {
		return fmt.Errorf("kafka.topic_events required when kafka.brokers is set")
	}
	return nil
}
