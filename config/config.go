package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	ServiceBus    ServiceBusConfig
	Elasticsearch ElasticsearchConfig
	NewRelic      NewRelicConfig
	Auth          AuthConfig
	Reconcile     ReconcileConfig
	Logging       LoggingConfig
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	CorsWhiteList   []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Debug           bool
}

// RedisConfig holds the Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// ServiceBusConfig holds the Azure Service Bus configuration
type ServiceBusConfig struct {
	ConnectionString   string
	Prefix             string
	NotificationsQueue string
	Enabled            bool
}

// ElasticsearchConfig holds the Elasticsearch configuration
type ElasticsearchConfig struct {
	URLs     []string
	Username string
	Password string
	Index    string
	Enabled  bool
}

// NewRelicConfig holds the New Relic configuration
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig holds the JWT auth configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// ReconcileConfig holds the reconciliation worker configuration
type ReconcileConfig struct {
	SweepInterval    time.Duration
	DebounceInterval time.Duration
}

// LoggingConfig holds the logging configuration
type LoggingConfig struct {
	Level string
	JSON  bool
}

// Load reads configuration from config.yaml and environment variables
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("SJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, env vars and defaults still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			CorsWhiteList:   v.GetStringSlice("server.cors_whitelist"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.ssl_mode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			Debug:           v.GetBool("database.debug"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Enabled:  v.GetBool("redis.enabled"),
		},
		ServiceBus: ServiceBusConfig{
			ConnectionString:   v.GetString("servicebus.connection_string"),
			Prefix:             v.GetString("servicebus.prefix"),
			NotificationsQueue: v.GetString("servicebus.notifications_queue"),
			Enabled:            v.GetBool("servicebus.enabled"),
		},
		Elasticsearch: ElasticsearchConfig{
			URLs:     v.GetStringSlice("elasticsearch.urls"),
			Username: v.GetString("elasticsearch.username"),
			Password: v.GetString("elasticsearch.password"),
			Index:    v.GetString("elasticsearch.index"),
			Enabled:  v.GetBool("elasticsearch.enabled"),
		},
		NewRelic: NewRelicConfig{
			AppName:    v.GetString("newrelic.app_name"),
			LicenseKey: v.GetString("newrelic.license_key"),
			Enabled:    v.GetBool("newrelic.enabled"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Reconcile: ReconcileConfig{
			SweepInterval:    v.GetDuration("reconcile.sweep_interval"),
			DebounceInterval: v.GetDuration("reconcile.debounce_interval"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("logging.level"),
			JSON:  v.GetBool("logging.json"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8097)
	v.SetDefault("server.cors_whitelist", []string{"*"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "suratjalan_db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.debug", false)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", true)

	v.SetDefault("servicebus.connection_string", "")
	v.SetDefault("servicebus.prefix", "")
	v.SetDefault("servicebus.notifications_queue", "notifications")
	v.SetDefault("servicebus.enabled", false)

	v.SetDefault("elasticsearch.urls", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.index", "delivery-notes")
	v.SetDefault("elasticsearch.enabled", false)

	v.SetDefault("newrelic.app_name", "Surat Jalan Logistics")
	v.SetDefault("newrelic.license_key", "")
	v.SetDefault("newrelic.enabled", false)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("reconcile.sweep_interval", 5*time.Minute)
	v.SetDefault("reconcile.debounce_interval", 300*time.Millisecond)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)
}
