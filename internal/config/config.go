package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Flasher   FlasherConfig
	Companion CompanionConfig
	Redis     RedisConfig
	LogLevel  string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  int
	WriteTimeout int // 0 disables the write deadline
}

// FlasherConfig holds settings for the external flashing utility
type FlasherConfig struct {
	Executable  string
	FirmwareDir string
	Workers     int // max concurrent flashing processes
}

// CompanionConfig holds settings for the companion device HTTP toggle
type CompanionConfig struct {
	Timeout int // seconds
}

// RedisConfig holds Redis-related configuration. An empty Addr disables event publishing.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 8080),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 0),
		},
		Flasher: FlasherConfig{
			Executable:  getEnv("FLASHER_BIN", "zigstar-flasher"),
			FirmwareDir: getEnv("FIRMWARE_DIR", "/share"),
			Workers:     getEnvAsInt("FLASH_WORKERS", 4),
		},
		Companion: CompanionConfig{
			Timeout: getEnvAsInt("COMPANION_TIMEOUT", 10),
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", ""),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvAsInt("REDIS_DB", 0),
			ChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", "zigstar"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
