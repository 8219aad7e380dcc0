package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/v1/api/", cfg.Client.APIBaseURL)
	assert.Equal(t, 4, cfg.Client.ReceiptCountdown)
	assert.Equal(t, time.Second, cfg.Client.ReceiptTick)
	assert.Equal(t, 500*time.Millisecond, cfg.Client.RefreshGrace)
	assert.False(t, cfg.Client.LocalReceipts)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 7*24*time.Hour, cfg.Scheduler.CartTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "https://shop.example.com/v1/api/")
	t.Setenv("STOREFRONT_RECEIPT_TICK", "250ms")
	t.Setenv("STOREFRONT_LOCAL_RECEIPTS", "true")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/v1/api/", cfg.Client.APIBaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.ReceiptTick)
	assert.True(t, cfg.Client.LocalReceipts)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STOREFRONT_TIMEOUT", "soon")
	t.Setenv("REDIS_DB", "x")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestLoad_RejectsZeroCountdown(t *testing.T) {
	t.Setenv("STOREFRONT_RECEIPT_COUNTDOWN", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "shop", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", c.DSN())
}

func TestLoad_DatabasePoolAndPasswordCost(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.Equal(t, 100, cfg.Database.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 12, cfg.Password.BcryptCost)

	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("DB_MAX_IDLE_CONNS", "8")
	t.Setenv("BCRYPT_COST", "10")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.Equal(t, 4, cfg.Database.MaxIdleConns)
	assert.Equal(t, 10, cfg.Password.BcryptCost)

	t.Setenv("DB_MAX_OPEN_CONNS", "0")
	_, err = Load()
	assert.Error(t, err)
}
