package config

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Run("returns value when set", func(t *testing.T) {
		t.Setenv("TEST_GET_ENV_KEY", "myvalue")

		if got := getEnv("TEST_GET_ENV_KEY", "default"); got != "myvalue" {
			t.Errorf("got %q, want myvalue", got)
		}
	})

	t.Run("returns default when empty", func(t *testing.T) {
		t.Setenv("TEST_GET_ENV_KEY_EMPTY", "")
		if got := getEnv("TEST_GET_ENV_KEY_EMPTY", "fallback"); got != "fallback" {
			t.Errorf("got %q, want fallback", got)
		}
	})
}

func TestGetEnvAsInt(t *testing.T) {
	t.Run("valid int", func(t *testing.T) {
		t.Setenv("TEST_INT", "42")

		if got := getEnvAsInt("TEST_INT", 10); got != 42 {
			t.Errorf("got %d, want 42", got)
		}
	})

	t.Run("invalid int returns default", func(t *testing.T) {
		t.Setenv("TEST_INT_BAD", "not_a_number")

		if got := getEnvAsInt("TEST_INT_BAD", 99); got != 99 {
			t.Errorf("got %d, want 99", got)
		}
	})

	t.Run("empty returns default", func(t *testing.T) {
		t.Setenv("TEST_INT_EMPTY", "")
		if got := getEnvAsInt("TEST_INT_EMPTY", 7); got != 7 {
			t.Errorf("got %d, want 7", got)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "FLASHER_BIN", "FIRMWARE_DIR",
		"FLASH_WORKERS", "COMPANION_TIMEOUT", "REDIS_ADDR", "REDIS_DB", "REDIS_CHANNEL_PREFIX", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != 0 {
		t.Errorf("Server.WriteTimeout = %d, want 0", cfg.Server.WriteTimeout)
	}
	if cfg.Flasher.Executable != "zigstar-flasher" {
		t.Errorf("Flasher.Executable = %q, want zigstar-flasher", cfg.Flasher.Executable)
	}
	if cfg.Flasher.FirmwareDir != "/share" {
		t.Errorf("Flasher.FirmwareDir = %q, want /share", cfg.Flasher.FirmwareDir)
	}
	if cfg.Flasher.Workers != 4 {
		t.Errorf("Flasher.Workers = %d, want 4", cfg.Flasher.Workers)
	}
	if cfg.Companion.Timeout != 10 {
		t.Errorf("Companion.Timeout = %d, want 10", cfg.Companion.Timeout)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Redis.Addr = %q, want empty (publishing disabled)", cfg.Redis.Addr)
	}
	if cfg.Redis.ChannelPrefix != "zigstar" {
		t.Errorf("Redis.ChannelPrefix = %q, want zigstar", cfg.Redis.ChannelPrefix)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FIRMWARE_DIR", "/data/firmware")
	t.Setenv("FLASHER_BIN", "/usr/local/bin/zigstar-flasher")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Flasher.FirmwareDir != "/data/firmware" {
		t.Errorf("Flasher.FirmwareDir = %q", cfg.Flasher.FirmwareDir)
	}
	if cfg.Flasher.Executable != "/usr/local/bin/zigstar-flasher" {
		t.Errorf("Flasher.Executable = %q", cfg.Flasher.Executable)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
}
