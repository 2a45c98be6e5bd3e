package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cwrk-planet/relay-service/internal/postgres"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr              string        `yaml:"addr"`
	ReadTimeout       time.Duration `yaml:"readTimeout"`
	WriteTimeout      time.Duration `yaml:"writeTimeout"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
	AllowedOrigins    []string      `yaml:"allowedOrigins"`
	TrustProxyHeaders bool          `yaml:"trustProxyHeaders"`
}

type GRPC struct {
	Addr           string        `yaml:"addr"`
	DefaultTimeout time.Duration `yaml:"defaultTimeout"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // relay-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Auth struct {
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	AccessTTL  time.Duration `yaml:"accessTTL"`
	ClockSkew  time.Duration `yaml:"clockSkew"`
	MinLength  int           `yaml:"minPasswordLength"`
	BcryptCost int           `yaml:"bcryptCost"`
}

// Postgres is optional: with an empty DSN users are kept in memory.
type Postgres struct {
	DSN               string        `yaml:"dsn"`
	MaxConns          int32         `yaml:"maxConns"`
	MinConns          int32         `yaml:"minConns"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod"`
	ApplicationName   string        `yaml:"applicationName"`
}

func (p Postgres) ToPGConfig() postgres.Config {
	return postgres.Config{
		DSN:               p.DSN,
		MaxConns:          p.MaxConns,
		MinConns:          p.MinConns,
		MaxConnLifetime:   p.MaxConnLifetime,
		MaxConnIdleTime:   p.MaxConnIdleTime,
		HealthCheckPeriod: p.HealthCheckPeriod,
		ApplicationName:   p.ApplicationName,
	}
}

// Redis is optional: with an empty addr rate limits are counted per process.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WS struct {
	SendBuffer     int           `yaml:"sendBuffer"`
	WriteWait      time.Duration `yaml:"writeWait"`
	PingEvery      time.Duration `yaml:"pingEvery"`
	MaxMessageSize int64         `yaml:"maxMessageSize"`
	FrameRate      int           `yaml:"frameRate"` // negative disables the per-connection limit
	FrameBurst     int           `yaml:"frameBurst"`
}

type Window struct {
	Limit  int           `yaml:"limit"`
	Period time.Duration `yaml:"period"`
}

type RateLimit struct {
	Login      Window `yaml:"login"`
	CreateRoom Window `yaml:"createRoom"`
}

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	GRPC      GRPC      `yaml:"grpc"`
	Logging   Logging   `yaml:"logging"`
	Auth      Auth      `yaml:"auth"`
	Postgres  Postgres  `yaml:"postgres"`
	Redis     Redis     `yaml:"redis"`
	WS        WS        `yaml:"ws"`
	RateLimit RateLimit `yaml:"rateLimit"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets deployments keep secrets and addresses out of the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

func (c *Config) validate() error {
	if c.Auth.Secret == "" {
		return errors.New("auth.secret is required")
	}
	if _, ok := placeholderSecrets[c.Auth.Secret]; ok {
		return errors.New("auth.secret is a placeholder; set JWT_SECRET")
	}
	if c.Auth.ClockSkew < 0 || c.Auth.ClockSkew > time.Minute {
		return errors.New("auth.clockSkew must be in [0..1m]")
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 18) {
		return errors.New("auth.bcryptCost must be in [4..18]")
	}

	// defaults for everything left out
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	c.HTTP.ReadTimeout = orDefault(c.HTTP.ReadTimeout, 10*time.Second)
	c.HTTP.WriteTimeout = orDefault(c.HTTP.WriteTimeout, 15*time.Second)
	c.HTTP.IdleTimeout = orDefault(c.HTTP.IdleTimeout, 60*time.Second)
	c.HTTP.ShutdownTimeout = orDefault(c.HTTP.ShutdownTimeout, 10*time.Second)

	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":9090"
	}
	c.GRPC.DefaultTimeout = orDefault(c.GRPC.DefaultTimeout, 10*time.Second)

	if c.Logging.Service == "" {
		c.Logging.Service = "relay-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}

	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "relay-service"
	}
	c.Auth.AccessTTL = orDefault(c.Auth.AccessTTL, time.Hour)
	if c.Auth.MinLength <= 0 {
		c.Auth.MinLength = 6
	}

	if c.Postgres.ApplicationName == "" {
		c.Postgres.ApplicationName = c.Logging.Service
	}

	if c.WS.FrameRate == 0 {
		c.WS.FrameRate = 20
	}
	if c.WS.FrameBurst <= 0 {
		c.WS.FrameBurst = 2 * c.WS.FrameRate
	}

	c.RateLimit.Login.Period = orDefault(c.RateLimit.Login.Period, time.Minute)
	if c.RateLimit.Login.Limit <= 0 {
		c.RateLimit.Login.Limit = 10
	}
	c.RateLimit.CreateRoom.Period = orDefault(c.RateLimit.CreateRoom.Period, time.Minute)
	if c.RateLimit.CreateRoom.Limit <= 0 {
		c.RateLimit.CreateRoom.Limit = 30
	}
	return nil
}

var placeholderSecrets = map[string]struct{}{
	"change-me": {},
	"changeme":  {},
	"secret":    {},
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
