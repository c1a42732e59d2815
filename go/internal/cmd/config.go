package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/rendezvous/go/internal/rendezvous"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string            `yaml:"port"`
	LogLevel       string            `yaml:"log_level"`
	NATSURL        string            `yaml:"nats_url"`
	ArchiveEnabled bool              `yaml:"archive_enabled"`
	Rendezvous     rendezvous.Config `yaml:"rendezvous"`
}

func defaultConfig() Config {
	return Config{
		Port:       "8080",
		LogLevel:   "info",
		Rendezvous: rendezvous.DefaultConfig(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// loadConfig layers the optional YAML file over defaults, then env over both
func loadConfig(path string) (Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Port = getEnv("PORT", config.Port)
	config.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", config.LogLevel))
	config.NATSURL = getEnv("NATS_URL", config.NATSURL)
	config.ArchiveEnabled = getEnvAsBool("ARCHIVE_ENABLED", config.ArchiveEnabled)

	rc := &config.Rendezvous
	rc.RequiredParticipants = getEnvAsInt("REQUIRED_PARTICIPANTS", rc.RequiredParticipants)
	rc.DecisionWindow = getEnvAsDuration("DECISION_WINDOW", rc.DecisionWindow)
	rc.RoundBudget = getEnvAsDuration("ROUND_BUDGET", rc.RoundBudget)
	rc.DrainWindow = getEnvAsDuration("DRAIN_WINDOW", rc.DrainWindow)
	rc.HistoryLimit = getEnvAsInt("HISTORY_LIMIT", rc.HistoryLimit)
	rc.MaxParticipants = getEnvAsInt("MAX_PARTICIPANTS", rc.MaxParticipants)

	if err := rc.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid rendezvous config: %w", err)
	}
	return config, nil
}
