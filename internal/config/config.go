package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Log      LogConfig
	Kraken   KrakenConfig
	Feed     FeedConfig
	Database DatabaseConfig
	Metrics  MetricsConfig
}

// LogConfig defines the logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// KrakenConfig defines the streaming client settings.
type KrakenConfig struct {
	Sandbox bool
	// Endpoint overrides the production/sandbox URL when set.
	Endpoint          string
	KeepAliveInterval time.Duration `mapstructure:"keepalive_interval"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	Reconnect         bool
	ReconnectBaseWait time.Duration `mapstructure:"reconnect_base_wait"`
	ReconnectMaxWait  time.Duration `mapstructure:"reconnect_max_wait"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	RequestBurst      int           `mapstructure:"request_burst"`
}

// FeedConfig defines which feeds the recorder subscribes to.
type FeedConfig struct {
	Pairs      []string
	OrderBook  bool `mapstructure:"order_book"`
	Trades     bool
	BufferSize int `mapstructure:"buffer_size"`
}

// DatabaseConfig defines the database connection settings.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString returns a postgres URL for pgx.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// MetricsConfig defines the metrics/health HTTP listener.
type MetricsConfig struct {
	Addr string
}

// DefaultKrakenConfig returns the client settings used when nothing is configured.
func DefaultKrakenConfig() KrakenConfig {
	return KrakenConfig{
		KeepAliveInterval: 55 * time.Second,
		RequestTimeout:    10 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      5 * time.Second,
		Reconnect:         true,
		ReconnectBaseWait: time.Second,
		ReconnectMaxWait:  16 * time.Second,
		RequestsPerSecond: 5,
		RequestBurst:      10,
	}
}

func setDefaults(v *viper.Viper) {
	k := DefaultKrakenConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("kraken.sandbox", false)
	v.SetDefault("kraken.endpoint", "")
	v.SetDefault("kraken.keepalive_interval", k.KeepAliveInterval)
	v.SetDefault("kraken.request_timeout", k.RequestTimeout)
	v.SetDefault("kraken.handshake_timeout", k.HandshakeTimeout)
	v.SetDefault("kraken.write_timeout", k.WriteTimeout)
	v.SetDefault("kraken.reconnect", k.Reconnect)
	v.SetDefault("kraken.reconnect_base_wait", k.ReconnectBaseWait)
	v.SetDefault("kraken.reconnect_max_wait", k.ReconnectMaxWait)
	v.SetDefault("kraken.requests_per_second", k.RequestsPerSecond)
	v.SetDefault("kraken.request_burst", k.RequestBurst)

	v.SetDefault("feed.pairs", []string{"XBT/USD"})
	v.SetDefault("feed.order_book", true)
	v.SetDefault("feed.trades", true)
	v.SetDefault("feed.buffer_size", 1024)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "cryptuff")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("metrics.addr", ":9090")
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and environment apply.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}
	return config, nil
}
