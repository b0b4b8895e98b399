package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "dev")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageDriverMemory, cfg.DB.Driver)
	assert.Equal(t, 3, cfg.Ledger.MaxTxRetries)
	assert.Equal(t, 30, cfg.Ledger.ExpiryWarningDays)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("JWT_SECRET", "dev")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("LEDGER_MAX_TX_RETRIES", "5")
	t.Setenv("EXPIRY_WARNING_DAYS", "45")
	t.Setenv("IDEMPOTENCY_TTL_HOURS", "2")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("KAFKA_PUBLISH_TIMEOUT_MS", "500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 500*time.Millisecond, cfg.Kafka.PublishTimeout)
	assert.Equal(t, 5, cfg.Ledger.MaxTxRetries)
	assert.Equal(t, 45, cfg.Ledger.ExpiryWarningDays)
	assert.Equal(t, 2*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
}

func TestLoad_Invalido(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev")
	t.Setenv("STORAGE_DRIVER", "mongo")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", " ")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "corto")
	t.Setenv("APP_ENV", "production")
	_, err = Load()
	assert.Error(t, err, "secreto débil en producción")
}

func TestLoad_SQLite(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("JWT_SECRET", "dev")
	t.Setenv("SQLITE_PATH", "/var/lib/medstock/ledger.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageDriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/var/lib/medstock/ledger.db", cfg.DB.SQLitePath)
}

func TestLoad_SinSecretoJWT(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{User: "ledger", Password: "p@ss:w/rd", Host: "db", Port: 5432, DBName: "x", SSLMode: "disable"}
	assert.Equal(t, "postgres://ledger:p%40ss%3Aw%2Frd@db:5432/x?sslmode=disable", c.ConnectionString())
}
