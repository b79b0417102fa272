package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/pathing"
)

const (
	RedisPasswordEnv = "REDIS_PASSWORD"
	SMSAuthTokenEnv  = "SMS_AUTH_TOKEN"
	MQTTPasswordEnv  = "MQTT_PASSWORD"
)

func DefaultDashboardAPIConfig() *DashboardAPIConfig {
	return &DashboardAPIConfig{
		ListenAddress:         "0.0.0.0",
		ListenPort:            9040,
		LogLevel:              "info",
		LogFormat:             "json",
		RequestTimeoutSeconds: 10,
		MaxRangeDays:          366,
		TariffPerKWh:          0.12,
		SessionTTLHours:       24,
		Redis:                 RedisConfig{Address: "localhost:6379"},
		SMS: SMSConfig{
			BaseURL:        "https://api.twilio.com",
			TimeoutSeconds: 10,
		},
	}
}

func DefaultReadingCollectorConfig() *ReadingCollectorConfig {
	return &ReadingCollectorConfig{
		LogLevel:      "info",
		LogFormat:     "json",
		FeedHost:      "localhost:9039",
		ListenAddress: "0.0.0.0:9041",
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			Topic:    "home/energy/readings",
			ClientID: "energy-reading-collector",
			QoS:      1,
		},
	}
}

// LoadDashboardAPIConfig reads path, or dashboard_api.toml in the config
// directory when path is empty. A default file is written when none exists.
func LoadDashboardAPIConfig(path string) (*DashboardAPIConfig, error) {
	if path == "" {
		path = filepath.Join(pathing.GetConfigDir(), "dashboard_api.toml")
	}
	cfg := DefaultDashboardAPIConfig()
	if err := loadOrCreate(path, cfg); err != nil {
		return nil, err
	}

	// Zero values in an existing file fall back to defaults
	def := DefaultDashboardAPIConfig()
	setDefault(&cfg.ListenAddress, def.ListenAddress)
	setDefault(&cfg.ListenPort, def.ListenPort)
	setDefault(&cfg.LogLevel, def.LogLevel)
	setDefault(&cfg.LogFormat, def.LogFormat)
	setDefault(&cfg.RequestTimeoutSeconds, def.RequestTimeoutSeconds)
	setDefault(&cfg.MaxRangeDays, def.MaxRangeDays)
	setDefault(&cfg.TariffPerKWh, def.TariffPerKWh)
	setDefault(&cfg.SessionTTLHours, def.SessionTTLHours)
	setDefault(&cfg.Redis.Address, def.Redis.Address)
	setDefault(&cfg.SMS.BaseURL, def.SMS.BaseURL)
	setDefault(&cfg.SMS.TimeoutSeconds, def.SMS.TimeoutSeconds)

	overrideFromEnv(&cfg.Redis.Password, RedisPasswordEnv)
	overrideFromEnv(&cfg.SMS.AuthToken, SMSAuthTokenEnv)

	if cfg.SMS.Enabled && (cfg.SMS.AccountSID == "" || cfg.SMS.AuthToken == "") {
		return nil, fmt.Errorf("%s: sms is enabled but account_sid or auth_token is missing", path)
	}
	return cfg, nil
}

// LoadReadingCollectorConfig mirrors LoadDashboardAPIConfig for reading_collector.toml.
func LoadReadingCollectorConfig(path string) (*ReadingCollectorConfig, error) {
	if path == "" {
		path = filepath.Join(pathing.GetConfigDir(), "reading_collector.toml")
	}
	cfg := DefaultReadingCollectorConfig()
	if err := loadOrCreate(path, cfg); err != nil {
		return nil, err
	}

	def := DefaultReadingCollectorConfig()
	setDefault(&cfg.LogLevel, def.LogLevel)
	setDefault(&cfg.LogFormat, def.LogFormat)
	setDefault(&cfg.MQTT.Topic, def.MQTT.Topic)
	setDefault(&cfg.MQTT.ClientID, def.MQTT.ClientID)
	overrideFromEnv(&cfg.MQTT.Password, MQTTPasswordEnv)

	if cfg.FeedHost == "" && !cfg.MQTT.Enabled {
		return nil, fmt.Errorf("%s: neither feed_host nor mqtt is configured", path)
	}
	if cfg.MQTT.Enabled && cfg.MQTT.Broker == "" {
		return nil, fmt.Errorf("%s: mqtt is enabled without a broker", path)
	}
	return cfg, nil
}

func loadOrCreate(path string, cfg any) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		cfgFile, err := os.Create(path)
		if err != nil {
			return err
		}
		defer cfgFile.Close()
		if err := toml.NewEncoder(cfgFile).Encode(cfg); err != nil {
			return fmt.Errorf("writing default config %s: %w", path, err)
		}
		return nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func setDefault[T comparable](field *T, def T) {
	var zero T
	if *field == zero {
		*field = def
	}
}

func overrideFromEnv(field *string, key string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}
