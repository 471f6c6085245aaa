package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Segmentation SegmentationConfig `mapstructure:"segmentation"`
	Retouch      RetouchConfig      `mapstructure:"retouch"`
	Store        StoreConfig        `mapstructure:"store"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Log          LogConfig          `mapstructure:"log"`
	Mock         MockConfig         `mapstructure:"mock"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Prefix  string        `mapstructure:"prefix"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SegmentationConfig struct {
	MultimaskOutput bool `mapstructure:"multimask_output"`
}

type RetouchConfig struct {
	Operation     string  `mapstructure:"operation"`
	Strength      float64 `mapstructure:"strength"`
	GuidanceScale float64 `mapstructure:"guidance_scale"`
	Steps         int     `mapstructure:"steps"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory | redis
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

type MockConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load читает .env, YAML из CONFIG_FILE (если задан) и переменные окружения
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет значения, без которых клиент бэкенда работать не будет
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("backend url is required")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive, got %s", c.Backend.Timeout)
	}
	if c.Retouch.Strength < 0 || c.Retouch.Strength > 1 {
		return fmt.Errorf("retouch strength must be within [0,1], got %v", c.Retouch.Strength)
	}
	if c.Retouch.Steps <= 0 {
		return fmt.Errorf("retouch steps must be positive, got %d", c.Retouch.Steps)
	}
	if c.Retouch.GuidanceScale <= 0 {
		return fmt.Errorf("retouch guidance scale must be positive, got %v", c.Retouch.GuidanceScale)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")

	v.SetDefault("backend.url", "http://localhost:8000")
	v.SetDefault("backend.prefix", "/api/v1")
	v.SetDefault("backend.timeout", 5*time.Minute)

	v.SetDefault("segmentation.multimask_output", true)

	v.SetDefault("retouch.operation", "img2img")
	v.SetDefault("retouch.strength", 0.7)
	v.SetDefault("retouch.guidance_scale", 7.5)
	v.SetDefault("retouch.steps", 30)

	v.SetDefault("store.driver", "memory")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("log.mode", "debug")

	v.SetDefault("mock.addr", ":8000")
}
