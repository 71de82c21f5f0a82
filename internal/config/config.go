package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// CacheConfig controls the analysis result cache. The TTL is deployment
// policy, not a constant: in-process deployments typically run 5 minutes,
// Redis-backed ones an hour.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type ProvidersConfig struct {
	IPAPI     ProviderConfig `mapstructure:"ipapi"`
	IPWhois   ProviderConfig `mapstructure:"ipwhois"`
	AbuseIPDB ProviderConfig `mapstructure:"abuseipdb"`
	VPNAPI    ProviderConfig `mapstructure:"vpnapi"`
	RDAP      ProviderConfig `mapstructure:"rdap"`
}

type ProviderConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIURL  string        `mapstructure:"api_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ScoringConfig overrides the classifier's static name lists. Empty slices
// keep the built-in lists.
type ScoringConfig struct {
	VPNProviders     []string `mapstructure:"vpn_providers"`
	HostingProviders []string `mapstructure:"hosting_providers"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/ipscope")
	}

	// Environment variables
	v.SetEnvPrefix("IPSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("redis.host", "IPSCOPE_REDIS_HOST")
	v.BindEnv("redis.port", "IPSCOPE_REDIS_PORT")
	v.BindEnv("redis.password", "IPSCOPE_REDIS_PASSWORD")
	v.BindEnv("database.host", "IPSCOPE_DATABASE_HOST")
	v.BindEnv("database.port", "IPSCOPE_DATABASE_PORT")
	v.BindEnv("database.user", "IPSCOPE_DATABASE_USER")
	v.BindEnv("database.password", "IPSCOPE_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "IPSCOPE_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "IPSCOPE_DATABASE_SSLMODE")
	v.BindEnv("providers.abuseipdb.api_key", "IPSCOPE_PROVIDERS_ABUSEIPDB_API_KEY")
	v.BindEnv("providers.vpnapi.api_key", "IPSCOPE_PROVIDERS_VPNAPI_API_KEY")
	v.BindEnv("cache.ttl", "IPSCOPE_CACHE_TTL")
	v.BindEnv("app.environment", "IPSCOPE_APP_ENVIRONMENT")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}
