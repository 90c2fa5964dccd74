package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_defaults(t *testing.T) {
	conf, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "DEV", conf.Env)
	assert.True(t, conf.Debug)
	assert.False(t, conf.TestMode)
	assert.Equal(t, "Eco Masomo", conf.AppName)
	assert.Equal(t, 7*24*time.Hour, conf.Server.JWTExpirationDelta)
	assert.Equal(t, "localhost:5432", conf.Database.Address())
	assert.Equal(t, 10*time.Second, conf.Client.RequestTimeout)
	assert.Empty(t, conf.Redis.Addr)
}

func TestLoadConfig_testEnv(t *testing.T) {
	conf, err := LoadConfig("test")
	require.NoError(t, err)

	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
}

func TestLoadConfig_envOverrides(t *testing.T) {
	t.Setenv("QA_DEBUG", "false")
	t.Setenv("QA_SECRETKEY", "qa-secret")
	t.Setenv("QA_SERVER_HOST", "127.0.0.1:9000")
	t.Setenv("QA_SERVER_JWTEXPIRATIONDELTA", "1h")
	t.Setenv("QA_REDIS_ADDR", "redis:6379")
	t.Setenv("QA_CLIENT_APIBASEURL", "https://eco.test/v1/")

	conf, err := LoadConfig("qa")
	require.NoError(t, err)

	assert.False(t, conf.Debug)
	assert.Equal(t, "qa-secret", conf.SecretKey)
	assert.Equal(t, "127.0.0.1:9000", conf.Server.Host)
	assert.Equal(t, time.Hour, conf.Server.JWTExpirationDelta)
	assert.Equal(t, "redis:6379", conf.Redis.Addr)
	assert.Equal(t, "https://eco.test/v1", conf.Client.APIBaseURL)
}

func TestLoadConfig_secretKeyRequiredInProd(t *testing.T) {
	t.Setenv("PROD_DEBUG", "false")

	_, err := LoadConfig("prod")
	assert.Error(t, err)
}

func TestConfig_DefaultFrom(t *testing.T) {
	conf := &Config{AppName: "Eco", DefaultFromEmail: "noreply@eco.test"}
	from := conf.DefaultFrom()
	assert.Equal(t, "Eco", from.Name)
	assert.Equal(t, "noreply@eco.test", from.Address)

	conf.DefaultFromEmail = "Eco Team <team@eco.test>"
	from = conf.DefaultFrom()
	assert.Equal(t, "Eco Team", from.Name)
	assert.Equal(t, "team@eco.test", from.Address)
}
