package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defauts(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.App.Storage)
	assert.Equal(t, 7*24*time.Hour, cfg.Sales.CancelWindow())
	assert.Equal(t, 10, cfg.Sales.CancelReasonMinLength)
	assert.Equal(t, "TK", cfg.Sales.TicketPrefix)
	assert.Equal(t, 3, cfg.Sales.TicketMaxAttempts)
	assert.Equal(t, "5", cfg.Stock.LowThreshold.String())
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_Environnement(t *testing.T) {
	t.Setenv("STORAGE", "MEMORY")
	t.Setenv("SALE_CANCEL_WINDOW_DAYS", "3")
	t.Setenv("STOCK_LOW_THRESHOLD", "2.5")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TICKET_PREFIX", "BP")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.App.Storage)
	assert.Equal(t, 3*24*time.Hour, cfg.Sales.CancelWindow())
	assert.Equal(t, "2.5", cfg.Stock.LowThreshold.String())
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "BP", cfg.Sales.TicketPrefix)
}

func TestLoad_StockageInconnu(t *testing.T) {
	t.Setenv("STORAGE", "sqlite")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SecretRequisEnProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	_, err = Load()
	assert.NoError(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "boul", Password: "p@ss:word", DBName: "boulangerie", SSLMode: "disable"}
	assert.Equal(t, "postgres://boul:p%40ss%3Aword@db:5432/boulangerie?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://autre"
	assert.Equal(t, "postgres://autre", c.ConnectionString())
}
