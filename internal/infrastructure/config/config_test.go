package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values for the composite service", func(t *testing.T) {
		cfg, err := Load(ServiceComposite)
		require.NoError(t, err)

		assert.Equal(t, "product-composite", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "7000", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "product_composite_db", cfg.Database.DBName)
		assert.Equal(t, "http://product:7001", cfg.Integration.ProductURL)
		assert.Equal(t, "http://recommendation:7002", cfg.Integration.RecommendationURL)
		assert.Equal(t, "http://review:7003", cfg.Integration.ReviewURL)
		assert.Equal(t, 2*time.Second, cfg.Integration.Timeout)
		assert.True(t, cfg.Integration.Breaker.Enabled)
		assert.Equal(t, 10, cfg.PublishPool.Workers)
		assert.Equal(t, 100, cfg.PublishPool.QueueSize)
		assert.Equal(t, TransportMemory, cfg.Event.Transport)
		assert.Equal(t, "product-composite", cfg.Event.ConsumerGroup)
		assert.Equal(t, 3, cfg.Event.MaxAttempts)
		assert.True(t, cfg.Idempotency.Enabled)
		assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, "/actuator/prometheus", cfg.Metrics.Path)
	})

	t.Run("uses a port per backing service", func(t *testing.T) {
		for service, port := range map[string]string{
			ServiceProduct:        "7001",
			ServiceRecommendation: "7002",
			ServiceReview:         "7003",
		} {
			cfg, err := Load(service)
			require.NoError(t, err)
			assert.Equal(t, port, cfg.App.Port, service)
			assert.Equal(t, service, cfg.Event.ConsumerGroup, service)
		}
	})

	t.Run("loads values from environment variables with SANDCASTLE prefix", func(t *testing.T) {
		t.Setenv("SANDCASTLE_APP_PORT", "9000")
		t.Setenv("SANDCASTLE_DATABASE_DRIVER", "sqlite")
		t.Setenv("SANDCASTLE_INTEGRATION_PRODUCT_URL", "http://localhost:9001")
		t.Setenv("SANDCASTLE_INTEGRATION_TIMEOUT", "500ms")
		t.Setenv("SANDCASTLE_PUBLISH_POOL_WORKERS", "4")
		t.Setenv("SANDCASTLE_EVENT_TRANSPORT", "nats")
		t.Setenv("SANDCASTLE_EVENT_MAX_ATTEMPTS", "5")
		t.Setenv("SANDCASTLE_IDEMPOTENCY_ENABLED", "false")

		cfg, err := Load(ServiceProduct)
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "http://localhost:9001", cfg.Integration.ProductURL)
		assert.Equal(t, 500*time.Millisecond, cfg.Integration.Timeout)
		assert.Equal(t, 4, cfg.PublishPool.Workers)
		assert.Equal(t, TransportNATS, cfg.Event.Transport)
		assert.Equal(t, 5, cfg.Event.MaxAttempts)
		assert.False(t, cfg.Idempotency.Enabled)
	})

	t.Run("rejects an unknown transport", func(t *testing.T) {
		t.Setenv("SANDCASTLE_EVENT_TRANSPORT", "carrier-pigeon")

		_, err := Load(ServiceReview)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "event.transport")
	})

	t.Run("rejects the memory transport in production", func(t *testing.T) {
		t.Setenv("SANDCASTLE_APP_ENV", "production")
		t.Setenv("SANDCASTLE_DATABASE_PASSWORD", "secret")

		_, err := Load(ServiceReview)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "memory")
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg, ServiceProduct)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		cfg := base()
		cfg.Database.MaxIdleConns = 50
		assert.Error(t, cfg.validate())
	})

	t.Run("unknown database driver", func(t *testing.T) {
		cfg := base()
		cfg.Database.Driver = "oracle"
		assert.Error(t, cfg.validate())
	})

	t.Run("breaker failure ratio out of range", func(t *testing.T) {
		cfg := base()
		cfg.Integration.Breaker.FailureRatio = 1.5
		assert.Error(t, cfg.validate())
	})

	t.Run("sampling ratio out of range", func(t *testing.T) {
		cfg := base()
		cfg.Telemetry.SamplingRatio = -0.1
		assert.Error(t, cfg.validate())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "svc",
		Password: "p@ss word",
		DBName:   "product_db",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.True(t, strings.HasPrefix(dsn, "postgres://svc:"))
	assert.Contains(t, dsn, "@db:5432/product_db")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.NotContains(t, dsn, "p@ss word")
}

func TestServiceAddress(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		cfg := &Config{App: AppConfig{ServiceAddress: "product-1:7001", Port: "7001"}}
		assert.Equal(t, "product-1:7001", cfg.ServiceAddress())
	})

	t.Run("derived address ends with the port", func(t *testing.T) {
		cfg := &Config{App: AppConfig{Port: "7001"}}
		addr := cfg.ServiceAddress()
		assert.True(t, strings.HasSuffix(addr, ":7001"))
		assert.Contains(t, addr, "/")
	})
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.RedisAddr())
}
