package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/angas/otesensor-go/logging"
	"github.com/spf13/viper"
)

type AppConfigApi struct {
	Address string
	Port    int16
	// If not assigned, the server will serve embedded files.
	// If assigned, the server will serve files from the directory,
	// that must contain a "static" and "templates" directory.
	// This is useful for development.
	WwwDir *string `mapstructure:"www_dir"`
}

type AppConfigDatabase struct {
	Path string
	// How many days daily backup files should be stored before they gets deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 30
	}
	return *d.BackupRetentionDays
}

type AppConfigSensor struct {
	Name     string `mapstructure:"name"`      // Friendly name, default: "Current OTE Energy Cost"
	ObjectId string `mapstructure:"object_id"` // Used in MQTT topics and unique ids, default: "ote_energy_cost"
	// Chart-data endpoint, default: the OTE-CR day-ahead market endpoint
	Url *string `mapstructure:"url"`
	// Request timeout per day in seconds, default: 5
	Timeout *int `mapstructure:"timeout"`
	// Cron spec for the update cycle, default: "@every 1m"
	RunAt *string `mapstructure:"run_at"`
	// Timezone the market days are published in, default: "Europe/Prague"
	Timezone *string `mapstructure:"timezone"`
}

func (s AppConfigSensor) GetObjectId() string {
	if s.ObjectId == "" {
		return "ote_energy_cost"
	}
	return s.ObjectId
}

func (s AppConfigSensor) GetUrl() string {
	if s.Url == nil {
		return ""
	}
	return *s.Url
}

func (s AppConfigSensor) GetTimeout() time.Duration {
	if s.Timeout == nil || *s.Timeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(*s.Timeout) * time.Second
}

func (s AppConfigSensor) GetRunAt() string {
	if s.RunAt == nil || *s.RunAt == "" {
		return "@every 1m"
	}
	return *s.RunAt
}

func (s AppConfigSensor) GetTimezone() string {
	if s.Timezone == nil {
		return "Europe/Prague"
	}
	return *s.Timezone
}

type AppConfigMqtt struct {
	Enabled  bool
	Host     string
	Port     int16
	Username string
	Password string
	ClientId string `mapstructure:"client_id"`
	// Home Assistant discovery prefix, default: "homeassistant"
	DiscoveryPrefix *string `mapstructure:"discovery_prefix"`
	// Prefix for state, attributes and availability topics, default: "otesensor"
	TopicPrefix *string `mapstructure:"topic_prefix"`
}

func (m AppConfigMqtt) GetPort() int16 {
	if m.Port == 0 {
		return 1883
	}
	return m.Port
}

func (m AppConfigMqtt) GetClientId() string {
	if m.ClientId == "" {
		return "otesensor"
	}
	return m.ClientId
}

func (m AppConfigMqtt) GetDiscoveryPrefix() string {
	if m.DiscoveryPrefix == nil {
		return "homeassistant"
	}
	return *m.DiscoveryPrefix
}

func (m AppConfigMqtt) GetTopicPrefix() string {
	if m.TopicPrefix == nil {
		return "otesensor"
	}
	return *m.TopicPrefix
}

type AppConfigGui struct {
	// Timezone for displaying times in the GUI, default: UTC
	Timezone *string `mapstructure:"timezone"`
}

func (g AppConfigGui) GetTimezone() string {
	if g.Timezone == nil {
		return "UTC"
	}
	return *g.Timezone
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for database console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat == nil {
		return logging.LogAttrFormatJSON
	}
	if strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Api      AppConfigApi
	Database AppConfigDatabase
	Sensor   AppConfigSensor  `mapstructure:"sensor"`
	Mqtt     AppConfigMqtt    `mapstructure:"mqtt"`
	Gui      AppConfigGui     `mapstructure:"gui"`
	Logging  AppConfigLogging `mapstructure:"logging"`
}

func Load(path string) (*AppConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c AppConfig

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	return &c, nil
}
