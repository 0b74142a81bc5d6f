package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/angas/otesensor-go/logging"
)

const testConfig = `
api:
  port: 8081
database:
  path: /tmp/test.db
sensor:
  name: Test Sensor
  timeout: 3
  run_at: "@every 30s"
mqtt:
  enabled: true
  host: broker.local
  port: 1883
  client_id: test-client
logging:
  console_level: debug
  db_attrs_format: text
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	config, err := Load(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("Sensor", func(t *testing.T) {
		if config.Sensor.Name != "Test Sensor" {
			t.Errorf("Expected name Test Sensor, got %q", config.Sensor.Name)
		}
		if config.Sensor.GetTimeout() != 3*time.Second {
			t.Errorf("Expected timeout 3s, got %v", config.Sensor.GetTimeout())
		}
		if config.Sensor.GetRunAt() != "@every 30s" {
			t.Errorf("Expected run_at @every 30s, got %q", config.Sensor.GetRunAt())
		}
	})

	t.Run("Mqtt", func(t *testing.T) {
		if !config.Mqtt.Enabled {
			t.Errorf("Expected mqtt to be enabled")
		}
		if config.Mqtt.Host != "broker.local" || config.Mqtt.Port != 1883 {
			t.Errorf("Expected broker.local:1883, got %s:%d", config.Mqtt.Host, config.Mqtt.Port)
		}
		if config.Mqtt.GetClientId() != "test-client" {
			t.Errorf("Expected client id test-client, got %q", config.Mqtt.GetClientId())
		}
	})

	t.Run("Logging", func(t *testing.T) {
		if config.Logging.GetConsoleLevel() != slog.LevelDebug {
			t.Errorf("Expected console level DEBUG, got %v", config.Logging.GetConsoleLevel())
		}
		if config.Logging.GetDbAttrsFormat() != logging.LogAttrFormatText {
			t.Errorf("Expected db attrs format TEXT, got %v", config.Logging.GetDbAttrsFormat())
		}
	})

	t.Run("Api and database", func(t *testing.T) {
		if config.Api.Port != 8081 {
			t.Errorf("Expected port 8081, got %d", config.Api.Port)
		}
		if config.Database.Path != "/tmp/test.db" {
			t.Errorf("Expected database path /tmp/test.db, got %q", config.Database.Path)
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := Load(writeConfig(t, "database:\n  path: x.db\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Sensor.GetObjectId() != "ote_energy_cost" {
		t.Errorf("Expected default object id, got %q", config.Sensor.GetObjectId())
	}
	if config.Sensor.GetUrl() != "" {
		t.Errorf("Expected empty url, got %q", config.Sensor.GetUrl())
	}
	if config.Sensor.GetTimeout() != 5*time.Second {
		t.Errorf("Expected default timeout 5s, got %v", config.Sensor.GetTimeout())
	}
	if config.Sensor.GetRunAt() != "@every 1m" {
		t.Errorf("Expected default run_at, got %q", config.Sensor.GetRunAt())
	}
	if config.Sensor.GetTimezone() != "Europe/Prague" {
		t.Errorf("Expected default timezone Europe/Prague, got %q", config.Sensor.GetTimezone())
	}
	if config.Mqtt.Enabled {
		t.Errorf("Expected mqtt to be disabled by default")
	}
	if config.Mqtt.GetDiscoveryPrefix() != "homeassistant" {
		t.Errorf("Expected discovery prefix homeassistant, got %q", config.Mqtt.GetDiscoveryPrefix())
	}
	if config.Mqtt.GetTopicPrefix() != "otesensor" {
		t.Errorf("Expected topic prefix otesensor, got %q", config.Mqtt.GetTopicPrefix())
	}
	if config.Database.GetBackupRetentionDays() != 30 {
		t.Errorf("Expected backup retention 30, got %d", config.Database.GetBackupRetentionDays())
	}
	if config.Logging.GetDbMaxEntries() != 10000 {
		t.Errorf("Expected db max entries 10000, got %d", config.Logging.GetDbMaxEntries())
	}
	if config.Logging.GetDbLevel() != slog.LevelInfo {
		t.Errorf("Expected db level INFO, got %v", config.Logging.GetDbLevel())
	}
	if config.Gui.GetTimezone() != "UTC" {
		t.Errorf("Expected gui timezone UTC, got %q", config.Gui.GetTimezone())
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SENSOR_TIMEOUT", "10")
	t.Setenv("MQTT_HOST", "mqtt.example")

	config, err := Load(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Sensor.GetTimeout() != 10*time.Second {
		t.Errorf("Expected timeout 10s from env, got %v", config.Sensor.GetTimeout())
	}
	if config.Mqtt.Host != "mqtt.example" {
		t.Errorf("Expected host from env, got %q", config.Mqtt.Host)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Expected an error for a missing config file")
	}
}
