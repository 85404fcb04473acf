package container_test

import (
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/config"
	"github.com/serroba/shortlink/internal/container"
	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	t.Run("derives the base url from the port", func(t *testing.T) {
		opts := &container.Options{Port: 9000}

		assert.Equal(t, "http://localhost:9000", opts.PublicBaseURL())
	})

	t.Run("explicit base url wins", func(t *testing.T) {
		opts := &container.Options{Port: 9000, BaseURL: "https://sho.rt"}

		assert.Equal(t, "https://sho.rt", opts.PublicBaseURL())
	})

	t.Run("splits trusted proxies", func(t *testing.T) {
		assert.Empty(t, (&container.Options{}).TrustedProxyList())

		opts := &container.Options{TrustedProxies: "10.0.0.0/8, ,192.0.2.1"}
		assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, opts.TrustedProxyList())
	})

	t.Run("converts durations", func(t *testing.T) {
		opts := &container.Options{CacheTTLSeconds: 60, StoreTimeoutMillis: 3000, ShortenWindowSeconds: 60}

		assert.Equal(t, time.Minute, opts.CacheTTL())
		assert.Equal(t, 3*time.Second, opts.StoreTimeout())
		assert.Equal(t, time.Minute, opts.ShortenWindow())
	})
}

func TestConsumerOptions(t *testing.T) {
	cfg := &config.Consumer{}
	cfg.Redis.Addr = "redis:6379"
	cfg.Database.URL = "postgres://db"
	cfg.Log.Format = "json"
	cfg.Log.Level = "debug"

	opts := container.ConsumerOptions(cfg)

	assert.Equal(t, "redis:6379", opts.RedisAddr)
	assert.Equal(t, "postgres://db", opts.DatabaseURL)
	assert.Equal(t, "json", opts.LogFormat)
	assert.Equal(t, "debug", opts.LogLevel)
}
