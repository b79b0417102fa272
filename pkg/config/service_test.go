package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/pathing"
)

func TestDashboardConfigWritesDefaults(t *testing.T) {
	t.Setenv(pathing.ConfigDirEnv, t.TempDir())
	t.Setenv(RedisPasswordEnv, "")
	t.Setenv(SMSAuthTokenEnv, "")

	cfg, err := LoadDashboardAPIConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDashboardAPIConfig(), cfg)

	path := filepath.Join(pathing.GetConfigDir(), "dashboard_api.toml")
	var onDisk DashboardAPIConfig
	_, err = toml.DecodeFile(path, &onDisk)
	require.NoError(t, err)
	assert.Equal(t, 366, onDisk.MaxRangeDays)
	assert.Equal(t, 0.12, onDisk.TariffPerKWh)
}

func TestDashboardConfigPartialFile(t *testing.T) {
	t.Setenv(RedisPasswordEnv, "from-env")
	t.Setenv(SMSAuthTokenEnv, "")
	path := filepath.Join(t.TempDir(), "api.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_port = 8080
tariff_per_kwh = 0.3
allowed_origins = ["http://localhost:3000"]

[redis]
address = "redis:6379"
password = "from-file"
`), 0644))

	cfg, err := LoadDashboardAPIConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ListenPort)
	assert.Equal(t, 0.3, cfg.TariffPerKWh)
	assert.Equal(t, 366, cfg.MaxRangeDays)
	assert.Equal(t, "0.0.0.0", cfg.ListenAddress)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, "from-env", cfg.Redis.Password)
	assert.Equal(t, 24*60*60.0, cfg.SessionTTL().Seconds())
}

func TestDashboardConfigRejectsIncompleteSMS(t *testing.T) {
	t.Setenv(SMSAuthTokenEnv, "")
	path := filepath.Join(t.TempDir(), "api.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sms]\nenabled = true\naccount_sid = \"AC1\"\n"), 0644))

	_, err := LoadDashboardAPIConfig(path)
	require.Error(t, err)

	t.Setenv(SMSAuthTokenEnv, "secret")
	cfg, err := LoadDashboardAPIConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.SMS.AuthToken)
}

func TestDecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("listen_port = \"not a number\""), 0644))
	_, err := LoadDashboardAPIConfig(path)
	assert.Error(t, err)
}

func TestCollectorConfig(t *testing.T) {
	t.Setenv(MQTTPasswordEnv, "mqtt-secret")
	dir := t.TempDir()

	cfg, err := LoadReadingCollectorConfig(filepath.Join(dir, "collector.toml"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:9039", cfg.FeedHost)
	assert.Equal(t, "mqtt-secret", cfg.MQTT.Password)

	path := filepath.Join(dir, "none.toml")
	require.NoError(t, os.WriteFile(path, []byte("feed_host = \"\"\n"), 0644))
	_, err = LoadReadingCollectorConfig(path)
	assert.Error(t, err)
}
