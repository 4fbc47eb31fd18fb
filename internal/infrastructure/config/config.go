package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Service names, one per binary
const (
	ServiceComposite      = "product-composite"
	ServiceProduct        = "product"
	ServiceRecommendation = "recommendation"
	ServiceReview         = "review"
)

// Event transports
const (
	TransportMemory = "memory"
	TransportKafka  = "kafka"
	TransportNATS   = "nats"
	TransportRedis  = "redis"
)

var defaultPorts = map[string]string{
	ServiceComposite:      "7000",
	ServiceProduct:        "7001",
	ServiceRecommendation: "7002",
	ServiceReview:         "7003",
}

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Integration IntegrationConfig
	PublishPool PoolConfig
	StorePool   PoolConfig
	Event       EventConfig
	Idempotency IdempotencyConfig
	Telemetry   TelemetryConfig
	Metrics     MetricsConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
	// ServiceAddress overrides the address stamped on responses
	ServiceAddress string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AutoMigrate     bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	RateLimitEnabled  bool
	RateLimitRequests float64 // sustained requests per second
	RateLimitBurst    int
	CORSAllowOrigins  []string
}

// IntegrationConfig holds the composite service's downstream settings
type IntegrationConfig struct {
	ProductURL        string
	RecommendationURL string
	ReviewURL         string
	Timeout           time.Duration
	Breaker           BreakerConfig
}

// BreakerConfig holds circuit breaker settings for the product read
type BreakerConfig struct {
	Enabled      bool
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// PoolConfig sizes a bounded worker pool
type PoolConfig struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

// EventConfig holds messaging configuration
type EventConfig struct {
	Transport      string // memory, kafka, nats, redis
	ConsumerGroup  string
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	KafkaBrokers   []string
	NATSURL        string
	StreamMaxLen   int64
}

// IdempotencyConfig holds consumer-side duplicate suppression settings
type IdempotencyConfig struct {
	Enabled  bool
	TTL      time.Duration
	UseRedis bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
}

// MetricsConfig holds Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load loads configuration for service from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SANDCASTLE_ prefix (e.g., SANDCASTLE_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load(service string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SANDCASTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setBoolDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:           v.GetString("app.name"),
			Env:            v.GetString("app.env"),
			Port:           v.GetString("app.port"),
			ServiceAddress: v.GetString("app.service_address"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetFloat64("http.rate_limit_requests"),
			RateLimitBurst:    v.GetInt("http.rate_limit_burst"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
		},
		Integration: IntegrationConfig{
			ProductURL:        v.GetString("integration.product_url"),
			RecommendationURL: v.GetString("integration.recommendation_url"),
			ReviewURL:         v.GetString("integration.review_url"),
			Timeout:           v.GetDuration("integration.timeout"),
			Breaker: BreakerConfig{
				Enabled:      v.GetBool("integration.breaker.enabled"),
				MaxRequests:  v.GetUint32("integration.breaker.max_requests"),
				Interval:     v.GetDuration("integration.breaker.interval"),
				Timeout:      v.GetDuration("integration.breaker.timeout"),
				FailureRatio: v.GetFloat64("integration.breaker.failure_ratio"),
				MinRequests:  v.GetUint32("integration.breaker.min_requests"),
			},
		},
		PublishPool: PoolConfig{
			Workers:     v.GetInt("publish_pool.workers"),
			QueueSize:   v.GetInt("publish_pool.queue_size"),
			TaskTimeout: v.GetDuration("publish_pool.task_timeout"),
		},
		StorePool: PoolConfig{
			Workers:     v.GetInt("store_pool.workers"),
			QueueSize:   v.GetInt("store_pool.queue_size"),
			TaskTimeout: v.GetDuration("store_pool.task_timeout"),
		},
		Event: EventConfig{
			Transport:      v.GetString("event.transport"),
			ConsumerGroup:  v.GetString("event.consumer_group"),
			MaxAttempts:    v.GetInt("event.max_attempts"),
			InitialBackoff: v.GetDuration("event.initial_backoff"),
			MaxBackoff:     v.GetDuration("event.max_backoff"),
			KafkaBrokers:   v.GetStringSlice("event.kafka_brokers"),
			NATSURL:        v.GetString("event.nats_url"),
			StreamMaxLen:   v.GetInt64("event.stream_max_len"),
		},
		Idempotency: IdempotencyConfig{
			Enabled:  v.GetBool("idempotency.enabled"),
			TTL:      v.GetDuration("idempotency.ttl"),
			UseRedis: v.GetBool("idempotency.use_redis"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
	}

	applyDefaults(cfg, service)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setBoolDefaults registers defaults for the switches that are on unless turned off
func setBoolDefaults(v *viper.Viper) {
	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("integration.breaker.enabled", true)
	v.SetDefault("database.auto_migrate", true)
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config, service string) {
	if cfg.App.Name == "" {
		cfg.App.Name = service
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = defaultPorts[service]
		if cfg.App.Port == "" {
			cfg.App.Port = "8080"
		}
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = strings.ReplaceAll(cfg.App.Name, "-", "_") + "_db"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "file::memory:?cache=shared"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = 200
	}
	if cfg.Integration.ProductURL == "" {
		cfg.Integration.ProductURL = "http://product:" + defaultPorts[ServiceProduct]
	}
	if cfg.Integration.RecommendationURL == "" {
		cfg.Integration.RecommendationURL = "http://recommendation:" + defaultPorts[ServiceRecommendation]
	}
	if cfg.Integration.ReviewURL == "" {
		cfg.Integration.ReviewURL = "http://review:" + defaultPorts[ServiceReview]
	}
	if cfg.Integration.Timeout == 0 {
		cfg.Integration.Timeout = 2 * time.Second
	}
	if cfg.Integration.Breaker.MaxRequests == 0 {
		cfg.Integration.Breaker.MaxRequests = 5
	}
	if cfg.Integration.Breaker.Interval == 0 {
		cfg.Integration.Breaker.Interval = 30 * time.Second
	}
	if cfg.Integration.Breaker.Timeout == 0 {
		cfg.Integration.Breaker.Timeout = 60 * time.Second
	}
	if cfg.Integration.Breaker.FailureRatio == 0 {
		cfg.Integration.Breaker.FailureRatio = 0.8
	}
	if cfg.Integration.Breaker.MinRequests == 0 {
		cfg.Integration.Breaker.MinRequests = 5
	}
	applyPoolDefaults(&cfg.PublishPool)
	applyPoolDefaults(&cfg.StorePool)
	if cfg.Event.Transport == "" {
		cfg.Event.Transport = TransportMemory
	}
	if cfg.Event.ConsumerGroup == "" {
		cfg.Event.ConsumerGroup = cfg.App.Name
	}
	if cfg.Event.MaxAttempts == 0 {
		cfg.Event.MaxAttempts = 3
	}
	if cfg.Event.InitialBackoff == 0 {
		cfg.Event.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.Event.MaxBackoff == 0 {
		cfg.Event.MaxBackoff = 2 * time.Second
	}
	if len(cfg.Event.KafkaBrokers) == 0 {
		cfg.Event.KafkaBrokers = []string{"kafka:9092"}
	}
	if cfg.Event.NATSURL == "" {
		cfg.Event.NATSURL = "nats://nats:4222"
	}
	if cfg.Event.StreamMaxLen == 0 {
		cfg.Event.StreamMaxLen = 10000
	}
	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = 24 * time.Hour
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/actuator/prometheus"
	}
}

func applyPoolDefaults(p *PoolConfig) {
	if p.Workers == 0 {
		p.Workers = 10
	}
	if p.QueueSize == 0 {
		p.QueueSize = 100
	}
	if p.TaskTimeout == 0 {
		p.TaskTimeout = 30 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	for name, pool := range map[string]PoolConfig{"publish_pool": c.PublishPool, "store_pool": c.StorePool} {
		if pool.Workers < 0 || pool.QueueSize < 0 {
			return fmt.Errorf("%s.workers and %s.queue_size must be positive", name, name)
		}
	}

	switch c.Event.Transport {
	case TransportMemory, TransportKafka, TransportNATS, TransportRedis:
	default:
		return fmt.Errorf("event.transport must be one of memory, kafka, nats, redis; got %q", c.Event.Transport)
	}
	if c.Event.MaxAttempts < 1 {
		return fmt.Errorf("event.max_attempts must be at least 1")
	}

	if c.Integration.Breaker.FailureRatio < 0 || c.Integration.Breaker.FailureRatio > 1 {
		return fmt.Errorf("integration.breaker.failure_ratio must be between 0.0 and 1.0, got %f",
			c.Integration.Breaker.FailureRatio)
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Event.Transport == TransportMemory {
			return fmt.Errorf("event.transport cannot be memory in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisAddr returns host:port for the Redis client
func (r *RedisConfig) RedisAddr() string {
	return net.JoinHostPort(r.Host, fmt.Sprintf("%d", r.Port))
}

// ServiceAddress returns the address this instance stamps on its responses,
// in the form hostname/ip:port.
func (c *Config) ServiceAddress() string {
	if c.App.ServiceAddress != "" {
		return c.App.ServiceAddress
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s/%s:%s", host, localIP(), c.App.Port)
}

func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
			return ipNet.IP.String()
		}
	}
	return "127.0.0.1"
}
