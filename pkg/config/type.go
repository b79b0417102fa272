package config

import "time"

type DashboardAPIConfig struct {
	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`
	LogLevel      string `toml:"log_level"`
	// "json" or "console"
	LogFormat string `toml:"log_format"`

	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
	MaxRangeDays          int      `toml:"max_range_days"`
	TariffPerKWh          float64  `toml:"tariff_per_kwh"`
	AllowedOrigins        []string `toml:"allowed_origins"`
	SecureCookies         bool     `toml:"secure_cookies"`
	SessionTTLHours       int      `toml:"session_ttl_hours"`
	// Give newly verified users the demo devices and a week of readings.
	SeedOnVerify bool `toml:"seed_on_verify"`

	Redis RedisConfig `toml:"redis"`
	SMS   SMSConfig   `toml:"sms"`
}

func (c *DashboardAPIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *DashboardAPIConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

type RedisConfig struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// SMSConfig points at a Twilio-compatible messaging API. When disabled,
// verification codes are only written to the log.
type SMSConfig struct {
	Enabled             bool   `toml:"enabled"`
	BaseURL             string `toml:"base_url"`
	AccountSID          string `toml:"account_sid"`
	AuthToken           string `toml:"auth_token"`
	MessagingServiceSID string `toml:"messaging_service_sid"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
}

type ReadingCollectorConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// host:port of the live reading websocket, empty disables the feed
	FeedHost   string `toml:"feed_host"`
	TLSEnabled bool   `toml:"tls_enabled"`

	// Serves /metrics and the /ws rebroadcast of stored readings, empty disables
	ListenAddress string `toml:"listen_address"`

	MQTT MQTTConfig `toml:"mqtt"`
}

type MQTTConfig struct {
	Enabled  bool   `toml:"enabled"`
	Broker   string `toml:"broker"`
	Topic    string `toml:"topic"`
	ClientID string `toml:"client_id"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	QoS      byte   `toml:"qos"`
}
