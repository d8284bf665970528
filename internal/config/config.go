// Package config handles loading and validating the lircbridge configuration.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/viper"
)

// Config is the root configuration for the lircbridge daemon.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	LIRC       LIRCConfig       `mapstructure:"lirc"`
	Profile    ProfileConfig    `mapstructure:"profile"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled bool      `mapstructure:"enabled"`
	Port    int       `mapstructure:"port"`
	TLS     TLSConfig `mapstructure:"tls"`
}

// TLSConfig enables an additional HTTPS listener next to the plain one.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Port     int    `mapstructure:"port"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// LIRCConfig selects and configures the transmission driver.
type LIRCConfig struct {
	Driver      string        `mapstructure:"driver"`  // "socket" or "fixture"
	Socket      string        `mapstructure:"socket"`  // unix socket path or host:port
	Fixture     string        `mapstructure:"fixture"` // catalog file for the fixture driver
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	QueueSize   int           `mapstructure:"queue_size"`
	Retry       RetryConfig   `mapstructure:"retry"`
}

// RetryConfig controls reconnects to lircd.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
}

// ProfileConfig lists where the IR profile (macros, blacklists, repeaters)
// is looked up. The first existing file wins.
type ProfileConfig struct {
	Paths []string `mapstructure:"paths"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text, console
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./lircbridge.yaml, ./configs/lircbridge.yaml, /etc/lircbridge/lircbridge.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 3000)
	v.SetDefault("transports.http.tls.enabled", false)
	v.SetDefault("transports.http.tls.port", 3443)
	v.SetDefault("transports.http.tls.cert_file", "")
	v.SetDefault("transports.http.tls.key_file", "")
	v.SetDefault("lirc.driver", "socket")
	v.SetDefault("lirc.socket", "/var/run/lirc/lircd")
	v.SetDefault("lirc.fixture", "")
	v.SetDefault("lirc.dial_timeout", "2s")
	v.SetDefault("lirc.queue_size", 64)
	v.SetDefault("lirc.retry.max_attempts", 3)
	v.SetDefault("lirc.retry.initial_delay", "100ms")
	v.SetDefault("lirc.retry.max_delay", "2s")
	v.SetDefault("profile.paths", []string{"./config.json", "${HOME}/.lirc_web_config.json"})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("lircbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/lircbridge")
	}

	// Environment variables: LIRCBRIDGE_LIRC_SOCKET, LIRCBRIDGE_TRANSPORTS_HTTP_PORT, etc.
	v.SetEnvPrefix("LIRCBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The config file is optional; env vars and defaults are sufficient.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.LIRC.Socket = resolveEnvRef(cfg.LIRC.Socket)
	cfg.Transports.HTTP.TLS.CertFile = resolveEnvRef(cfg.Transports.HTTP.TLS.CertFile)
	cfg.Transports.HTTP.TLS.KeyFile = resolveEnvRef(cfg.Transports.HTTP.TLS.KeyFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.LIRC.Driver {
	case "socket":
		if c.LIRC.Socket == "" {
			return fmt.Errorf("lirc.socket is required for the socket driver")
		}
	case "fixture":
		if c.LIRC.Fixture == "" {
			return fmt.Errorf("lirc.fixture is required for the fixture driver")
		}
	default:
		return fmt.Errorf("unknown lirc driver %q", c.LIRC.Driver)
	}
	tls := c.Transports.HTTP.TLS
	if tls.Enabled && (tls.CertFile == "" || tls.KeyFile == "") {
		return fmt.Errorf("transports.http.tls needs cert_file and key_file")
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, cfg)))
}

// NewHandler builds the slog handler for cfg writing to w.
func NewHandler(w io.Writer, cfg LoggingConfig) slog.Handler {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	switch strings.ToLower(cfg.Format) {
	case "text":
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "console":
		return tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	default:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
}
