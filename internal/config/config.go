/*
 * This file is part of VoxDesk (https://github.com/voxdesk/voxdesk).
 * Copyright (C) 2025 VoxDesk Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the VoxDesk hub
type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Learning LearningConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	NATS     NATSConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// EngineConfig holds classification engine configuration
type EngineConfig struct {
	// LowConfidenceThreshold is the floor below which a model prediction
	// is discarded in favor of the fallback category.
	LowConfidenceThreshold float64
	// FallbackCategory receives utterances no rule or confident model
	// prediction covers. Open-ended search is the safe default.
	FallbackCategory string
	// FallbackConfidence is the fixed confidence of fallback results.
	FallbackConfidence float64
	// ContextStep is the amount contextual "more"/"less" adjusts a
	// percentage parameter by.
	ContextStep int
	// ReviewThreshold marks classifications for the pending review queue.
	ReviewThreshold float64
	// RulesPath optionally overrides the built-in rule table (YAML).
	RulesPath string
	// CategoriesPath optionally overrides the built-in capability
	// registry (YAML).
	CategoriesPath string
}

// LearningConfig holds learning store configuration
type LearningConfig struct {
	// RetrainBatchSize is how many confirmed examples accumulate before
	// an asynchronous retrain is triggered.
	RetrainBatchSize int
	// RetrainSchedule is a cron spec for the periodic retrain sweep that
	// picks up updates stranded below the batch threshold.
	RetrainSchedule string
}

// DatabaseConfig holds SQLite configuration
type DatabaseConfig struct {
	Path string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// NATSConfig holds NATS messaging configuration
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:         getEnvString("VOXDESK_HOST", "0.0.0.0"),
			Port:         getEnvInt("VOXDESK_PORT", 3000),
			ReadTimeout:  getEnvDuration("VOXDESK_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("VOXDESK_WRITE_TIMEOUT", 30*time.Second),
		},
		Engine: EngineConfig{
			LowConfidenceThreshold: getEnvFloat64("VOXDESK_LOW_CONFIDENCE", 0.3),
			FallbackCategory:       getEnvString("VOXDESK_FALLBACK_CATEGORY", "web_search"),
			FallbackConfidence:     getEnvFloat64("VOXDESK_FALLBACK_CONFIDENCE", 0.3),
			ContextStep:            getEnvInt("VOXDESK_CONTEXT_STEP", 10),
			ReviewThreshold:        getEnvFloat64("VOXDESK_REVIEW_THRESHOLD", 0.5),
			RulesPath:              getEnvString("VOXDESK_RULES_PATH", ""),
			CategoriesPath:         getEnvString("VOXDESK_CATEGORIES_PATH", ""),
		},
		Learning: LearningConfig{
			RetrainBatchSize: getEnvInt("VOXDESK_RETRAIN_BATCH", 5),
			RetrainSchedule:  getEnvString("VOXDESK_RETRAIN_SCHEDULE", "@every 10m"),
		},
		Database: DatabaseConfig{
			Path: getEnvString("DB_PATH", "./data/voxdesk-hub.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		NATS: NATSConfig{
			URL:           getEnvString("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: getEnvString("NATS_SUBJECT_PREFIX", "voxdesk"),
			MaxReconnect:  getEnvInt("NATS_MAX_RECONNECT", 10),
			ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Engine.LowConfidenceThreshold < 0 || c.Engine.LowConfidenceThreshold > 1 {
		return fmt.Errorf("low confidence threshold out of range: %f", c.Engine.LowConfidenceThreshold)
	}

	if c.Engine.FallbackConfidence < 0 || c.Engine.FallbackConfidence > 1 {
		return fmt.Errorf("fallback confidence out of range: %f", c.Engine.FallbackConfidence)
	}

	if c.Engine.FallbackCategory == "" {
		return fmt.Errorf("fallback category must be provided")
	}

	if c.Engine.ContextStep <= 0 || c.Engine.ContextStep > 100 {
		return fmt.Errorf("context step out of range: %d", c.Engine.ContextStep)
	}

	if c.Learning.RetrainBatchSize <= 0 {
		return fmt.Errorf("retrain batch size must be positive: %d", c.Learning.RetrainBatchSize)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
