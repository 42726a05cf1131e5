package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "LAZYBOARD"

type Config struct {
	DBPath     string        `mapstructure:"db_path" json:"db_path"`
	WebEnabled bool          `mapstructure:"web_enabled" json:"web_enabled"`
	WebPort    int           `mapstructure:"web_port" json:"web_port"`
	LogLevel   string        `mapstructure:"log_level" json:"log_level"`
	Storage    StorageConfig `mapstructure:"storage" json:"storage"`
}

// StorageConfig selects where the board snapshot lives.
type StorageConfig struct {
	Backend  string        `mapstructure:"backend" json:"backend"`
	Key      string        `mapstructure:"key" json:"key"`
	RedisURL string        `mapstructure:"redis_url" json:"redis_url"`
	RedisTTL time.Duration `mapstructure:"redis_ttl" json:"redis_ttl"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout"`
}

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

func Default() Config {
	return Config{
		WebPort:  8080,
		LogLevel: "info",
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Key:     "lazyboard-board-state",
			Timeout: 2 * time.Second,
		},
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazyboard", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Load reads path if it exists and applies LAZYBOARD_* environment overrides,
// e.g. LAZYBOARD_STORAGE_BACKEND=redis. The result is not validated so callers
// can layer flags on top first.
func Load(path string) (Config, error) {
	return load(path, true)
}

// LoadFile reads path like Load but ignores the environment. It is the copy
// to hand back to Save, so env overrides such as a redis password never end
// up in the config file.
func LoadFile(path string) (Config, error) {
	return load(path, false)
}

func load(path string, withEnv bool) (Config, error) {
	v := newViper(withEnv)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("db_path", cfg.DBPath)
	v.Set("web_enabled", cfg.WebEnabled)
	v.Set("web_port", cfg.WebPort)
	v.Set("log_level", cfg.LogLevel)
	v.Set("storage.backend", cfg.Storage.Backend)
	v.Set("storage.key", cfg.Storage.Key)
	v.Set("storage.redis_url", cfg.Storage.RedisURL)
	v.Set("storage.redis_ttl", cfg.Storage.RedisTTL.String())
	v.Set("storage.timeout", cfg.Storage.Timeout.String())

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendRedis && strings.TrimSpace(c.Storage.RedisURL) == "" {
		return fmt.Errorf("storage.redis_url is required for the redis backend")
	}
	if c.Storage.Timeout <= 0 {
		return fmt.Errorf("storage.timeout must be positive")
	}
	if c.Storage.RedisTTL < 0 {
		return fmt.Errorf("storage.redis_ttl must not be negative")
	}
	return nil
}

func newViper(withEnv bool) *viper.Viper {
	defaults := Default()

	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("web_enabled", defaults.WebEnabled)
	v.SetDefault("web_port", defaults.WebPort)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("storage.backend", defaults.Storage.Backend)
	v.SetDefault("storage.key", defaults.Storage.Key)
	v.SetDefault("storage.redis_url", defaults.Storage.RedisURL)
	v.SetDefault("storage.redis_ttl", defaults.Storage.RedisTTL)
	v.SetDefault("storage.timeout", defaults.Storage.Timeout)

	if withEnv {
		v.SetEnvPrefix(envPrefix)
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	}
	return v
}
