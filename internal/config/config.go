// Package config loads harvester configuration from config.yml, .env files
// and HARVESTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/database"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/fetch"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/harvest"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/queue"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/storage"
)

// EnvPrefix prefixes every environment override, with "." replaced by "_".
const EnvPrefix = "HARVESTER"

// Defaults not owned by another package.
const (
	DefaultDatabasePort  = 5432
	DefaultSSLMode       = "disable"
	DefaultScheduleSpec  = "@hourly"
	DefaultServerAddress = ":8070"
	DefaultRedisAddr     = "localhost:6379"
	DefaultESAddress     = "http://localhost:9200"
)

// Config is the full harvester configuration.
type Config struct {
	Logging       logger.Config           `mapstructure:"logging"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Harvest       HarvestConfig           `mapstructure:"harvest"`
	Sources       map[string]SourceConfig `mapstructure:"sources"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Elasticsearch ElasticsearchConfig     `mapstructure:"elasticsearch"`
	Redis         RedisConfig             `mapstructure:"redis"`
	Scheduler     SchedulerConfig         `mapstructure:"scheduler"`
	Server        ServerConfig            `mapstructure:"server"`
}

// HTTPConfig configures the outbound fetcher.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// HarvestConfig configures the dispatcher.
type HarvestConfig struct {
	Workers             int           `mapstructure:"workers"`
	RunTimeout          time.Duration `mapstructure:"run_timeout"`
	EmptyAlertThreshold int           `mapstructure:"empty_alert_threshold"`
}

// SourceConfig holds per-source overrides.
type SourceConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Disabled   bool   `mapstructure:"disabled"`
	MaxResults int    `mapstructure:"max_results"`
}

// DatabaseConfig configures the source state store.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ElasticsearchConfig configures record storage.
type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// RedisConfig configures the downstream stream.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
}

// SchedulerConfig configures the serve loop.
type SchedulerConfig struct {
	Spec string `mapstructure:"spec"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// Load reads path (optional, config.yml in . or ./config when empty), loads
// .env, and applies HARVESTER_* overrides. sourceIDs are registered so their
// per-source keys can be overridden from the environment.
func Load(path string, sourceIDs ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, sourceIDs)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, sourceIDs []string) {
	v.SetDefault("logging.level", logger.DefaultLevel)
	v.SetDefault("logging.format", logger.DefaultFormat)
	v.SetDefault("http.timeout", fetch.DefaultTimeout)
	v.SetDefault("http.user_agent", fetch.DefaultUserAgent)
	v.SetDefault("harvest.workers", harvest.DefaultWorkers)
	v.SetDefault("harvest.run_timeout", harvest.DefaultRunTimeout)
	v.SetDefault("harvest.empty_alert_threshold", harvest.DefaultEmptyAlertThreshold)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", DefaultDatabasePort)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "legal_harvester")
	v.SetDefault("database.sslmode", DefaultSSLMode)
	v.SetDefault("elasticsearch.enabled", false)
	v.SetDefault("elasticsearch.addresses", []string{DefaultESAddress})
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.index", storage.DefaultIndex)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", queue.DefaultStream)
	v.SetDefault("scheduler.spec", DefaultScheduleSpec)
	v.SetDefault("server.address", DefaultServerAddress)

	for _, id := range sourceIDs {
		v.SetDefault("sources."+id+".base_url", "")
		v.SetDefault("sources."+id+".disabled", false)
		v.SetDefault("sources."+id+".max_results", 0)
	}
}

// SetDefaults fills zero values left after unmarshalling.
func (c *Config) SetDefaults() {
	c.Logging.SetDefaults()
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = fetch.DefaultTimeout
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = fetch.DefaultUserAgent
	}
	if c.Harvest.Workers <= 0 {
		c.Harvest.Workers = harvest.DefaultWorkers
	}
	if c.Harvest.RunTimeout <= 0 {
		c.Harvest.RunTimeout = harvest.DefaultRunTimeout
	}
	if c.Harvest.EmptyAlertThreshold <= 0 {
		c.Harvest.EmptyAlertThreshold = harvest.DefaultEmptyAlertThreshold
	}
	if c.Sources == nil {
		c.Sources = map[string]SourceConfig{}
	}
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDatabasePort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultSSLMode
	}
	if c.Elasticsearch.Index == "" {
		c.Elasticsearch.Index = storage.DefaultIndex
	}
	if c.Redis.Stream == "" {
		c.Redis.Stream = queue.DefaultStream
	}
	if c.Scheduler.Spec == "" {
		c.Scheduler.Spec = DefaultScheduleSpec
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultServerAddress
	}
}

// BaseURL implements spider.ConfigResolver.
func (c *Config) BaseURL(sourceID string) string {
	return strings.TrimSpace(c.Sources[sourceID].BaseURL)
}

// HarvestOptions converts the harvest and per-source settings for the dispatcher.
func (c *Config) HarvestOptions() harvest.Config {
	hc := harvest.Config{
		Workers:             c.Harvest.Workers,
		RunTimeout:          c.Harvest.RunTimeout,
		EmptyAlertThreshold: c.Harvest.EmptyAlertThreshold,
		Disabled:            map[string]bool{},
		MaxResults:          map[string]int{},
	}
	for id, sc := range c.Sources {
		if sc.Disabled {
			hc.Disabled[id] = true
		}
		if sc.MaxResults > 0 {
			hc.MaxResults[id] = sc.MaxResults
		}
	}
	return hc
}

// DatabaseOptions converts the database settings for database.NewPostgresConnection.
func (c *Config) DatabaseOptions() database.Config {
	return database.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		DBName:   c.Database.Name,
		SSLMode:  c.Database.SSLMode,
	}
}

// StorageOptions converts the Elasticsearch settings.
func (c *Config) StorageOptions() storage.Config {
	return storage.Config{
		Addresses: c.Elasticsearch.Addresses,
		Username:  c.Elasticsearch.Username,
		Password:  c.Elasticsearch.Password,
		Index:     c.Elasticsearch.Index,
	}
}

// QueueOptions converts the Redis settings.
func (c *Config) QueueOptions() queue.Config {
	return queue.Config{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Stream:   c.Redis.Stream,
	}
}
