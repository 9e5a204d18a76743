package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the server configuration. TokenTTL is fixed when a session is
// created, so it has to outlast SessionTTL, which every move renews.
type Config struct {
	LogLevel      string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPAddr      string        `yaml:"http-addr" env:"HTTP_ADDR" env-default:":8080"`
	SessionTTL    time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"1h"`
	OpponentDelay time.Duration `yaml:"opponent-delay" env:"OPPONENT_DELAY" env-default:"50ms"`
	JWTSecret     string        `yaml:"jwt-secret" env:"JWT_SECRET" env-default:"change-me"`
	TokenTTL      time.Duration `yaml:"token-ttl" env:"TOKEN_TTL" env-default:"24h"`
	Redis         Redis         `yaml:"redis"`
	Otel          Otel          `yaml:"otel"`
}

type Redis struct {
	// Addr is host:port of the session store. Empty keeps sessions in memory.
	Addr string `yaml:"addr" env:"REDIS_CONNSTRING"`
}

type Otel struct {
	// Endpoint is the OTLP gRPC collector. Empty disables OTLP export.
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"timetravel-tic-tac-toe"`
	// StdoutTraces prints finished spans to stdout.
	StdoutTraces bool `yaml:"stdout-traces" env:"OTEL_STDOUT_TRACES"`
}

// Load reads the yml file at path, when it exists, and applies environment
// overrides and defaults on top.
func Load(path string) (*Config, error) {
	config := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, config); err != nil {
				return nil, fmt.Errorf("unable to load config file: %w", err)
			}
			return config, nil
		}
	}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to load config from env: %w", err)
	}
	return config, nil
}

// MustLoad - load all configurations, panicking on error.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}
	return config
}
