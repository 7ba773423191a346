package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends accepted by Settings.Store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Settings is the resolved CLI configuration: defaults, then the config file,
// then TOWER_* environment variables, then flags bound by the caller.
type Settings struct {
	Dir         string        `mapstructure:"dir"`
	LogLevel    string        `mapstructure:"log_level"`
	LogJSON     bool          `mapstructure:"log_json"`
	Solver      string        `mapstructure:"solver"`
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Theme       string        `mapstructure:"theme"`

	Store   string        `mapstructure:"store"`
	RunsDir string        `mapstructure:"runs_dir"`
	RunTTL  time.Duration `mapstructure:"run_ttl"`
	Redis   RedisSettings `mapstructure:"redis"`
}

// RedisSettings configures the Redis store and locker.
type RedisSettings struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// NewViper returns a viper instance with the defaults and the TOWER_ environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("dir", ".")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_json", false)
	v.SetDefault("solver", "")
	v.SetDefault("concurrency", 0)
	v.SetDefault("timeout", "0s")
	v.SetDefault("theme", "auto")
	v.SetDefault("store", StoreMemory)
	v.SetDefault("runs_dir", ".tower/runs")
	v.SetDefault("run_ttl", "0s")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "tower:")

	v.SetEnvPrefix("TOWER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSettings reads configFile when given, or an optional tower.{yaml,toml,json} in dir,
// and unmarshals the result.
func LoadSettings(v *viper.Viper, configFile, dir string) (Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("tower")
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return s, s.Validate()
}

// Validate rejects unknown backends and negative limits.
func (s Settings) Validate() error {
	var errs []error
	switch s.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q (want memory, file or redis)", s.Store))
	}
	if s.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", s.Concurrency))
	}
	if s.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", s.Timeout))
	}
	return errors.Join(errs...)
}
