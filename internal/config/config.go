package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type APICfg struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type BreakerCfg struct {
	MaxFailures uint32 `mapstructure:"max_failures"`
	IntervalSec int    `mapstructure:"interval_seconds"`
	TimeoutSec  int    `mapstructure:"timeout_seconds"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type StorageCfg struct {
	// Backend selects where key-value state lives: "file" (default),
	// "memory", or "redis" for shared-device deployments.
	Backend string   `mapstructure:"backend"`
	Dir     string   `mapstructure:"dir"`
	Redis   RedisCfg `mapstructure:"redis"`
}

type ServerCfg struct {
	Port                int    `mapstructure:"port"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	RateLimitPerMin     int    `mapstructure:"rate_limit_per_min"`
	UploadDir           string `mapstructure:"upload_dir"`
	JWTSecret           string `mapstructure:"jwt_secret"`
	AccessTTLMinutes    int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLHours     int    `mapstructure:"refresh_ttl_hours"`
}

type LogCfg struct {
	Development bool `mapstructure:"development"`
}

type Config struct {
	API     APICfg     `mapstructure:"api"`
	Breaker BreakerCfg `mapstructure:"breaker"`
	Storage StorageCfg `mapstructure:"storage"`
	Server  ServerCfg  `mapstructure:"server"`
	Log     LogCfg     `mapstructure:"log"`

	// Derived
	APITimeout   time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// Load reads the YAML config at path with environment overrides.
// A .env file next to the process is honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("LMS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8080/api/v1"
	}
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = 15
	}
	if cfg.Breaker.MaxFailures == 0 {
		cfg.Breaker.MaxFailures = 5
	}
	if cfg.Breaker.IntervalSec == 0 {
		cfg.Breaker.IntervalSec = 60
	}
	if cfg.Breaker.TimeoutSec == 0 {
		cfg.Breaker.TimeoutSec = 30
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "file"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = ".lms"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "lms"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 30
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 30
	}
	if cfg.Server.RateLimitPerMin == 0 {
		cfg.Server.RateLimitPerMin = 120
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "uploads"
	}
	if cfg.Server.JWTSecret == "" {
		cfg.Server.JWTSecret = "dev-secret"
	}
	if cfg.Server.AccessTTLMinutes == 0 {
		cfg.Server.AccessTTLMinutes = 15
	}
	if cfg.Server.RefreshTTLHours == 0 {
		cfg.Server.RefreshTTLHours = 24 * 7
	}

	cfg.APITimeout = time.Duration(cfg.API.TimeoutSeconds) * time.Second
	cfg.ReadTimeout = time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second
	cfg.AccessTTL = time.Duration(cfg.Server.AccessTTLMinutes) * time.Minute
	cfg.RefreshTTL = time.Duration(cfg.Server.RefreshTTLHours) * time.Hour
	return &cfg, nil
}
