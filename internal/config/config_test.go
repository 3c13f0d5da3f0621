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
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Engine.LowConfidenceThreshold != 0.3 {
		t.Errorf("LowConfidenceThreshold = %f, want 0.3", cfg.Engine.LowConfidenceThreshold)
	}
	if cfg.Engine.FallbackCategory != "web_search" {
		t.Errorf("FallbackCategory = %s, want web_search", cfg.Engine.FallbackCategory)
	}
	if cfg.Engine.FallbackConfidence != 0.3 {
		t.Errorf("FallbackConfidence = %f, want 0.3", cfg.Engine.FallbackConfidence)
	}
	if cfg.Engine.ContextStep != 10 {
		t.Errorf("ContextStep = %d, want 10", cfg.Engine.ContextStep)
	}
	if cfg.Engine.ReviewThreshold != 0.5 {
		t.Errorf("ReviewThreshold = %f, want 0.5", cfg.Engine.ReviewThreshold)
	}
	if cfg.Learning.RetrainBatchSize != 5 {
		t.Errorf("RetrainBatchSize = %d, want 5", cfg.Learning.RetrainBatchSize)
	}
	if cfg.Learning.RetrainSchedule != "@every 10m" {
		t.Errorf("RetrainSchedule = %s", cfg.Learning.RetrainSchedule)
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("NATS.URL = %s", cfg.NATS.URL)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("VOXDESK_PORT", "8080")
	t.Setenv("VOXDESK_LOW_CONFIDENCE", "0.5")
	t.Setenv("VOXDESK_FALLBACK_CATEGORY", "unknown")
	t.Setenv("VOXDESK_CONTEXT_STEP", "5")
	t.Setenv("VOXDESK_RETRAIN_BATCH", "20")
	t.Setenv("VOXDESK_READ_TIMEOUT", "10s")
	t.Setenv("DB_PATH", "/tmp/custom.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Engine.LowConfidenceThreshold != 0.5 {
		t.Errorf("LowConfidenceThreshold = %f, want 0.5", cfg.Engine.LowConfidenceThreshold)
	}
	if cfg.Engine.FallbackCategory != "unknown" {
		t.Errorf("FallbackCategory = %s, want unknown", cfg.Engine.FallbackCategory)
	}
	if cfg.Engine.ContextStep != 5 {
		t.Errorf("ContextStep = %d, want 5", cfg.Engine.ContextStep)
	}
	if cfg.Learning.RetrainBatchSize != 20 {
		t.Errorf("RetrainBatchSize = %d, want 20", cfg.Learning.RetrainBatchSize)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v, want 10s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
}

func TestLoadInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("VOXDESK_PORT", "not-a-number")
	t.Setenv("VOXDESK_LOW_CONFIDENCE", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want default 3000", cfg.Server.Port)
	}
	if cfg.Engine.LowConfidenceThreshold != 0.3 {
		t.Errorf("LowConfidenceThreshold = %f, want default 0.3", cfg.Engine.LowConfidenceThreshold)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "VOXDESK_PORT", "99999"},
		{"threshold above one", "VOXDESK_LOW_CONFIDENCE", "1.5"},
		{"negative fallback confidence", "VOXDESK_FALLBACK_CONFIDENCE", "-0.1"},
		{"zero context step", "VOXDESK_CONTEXT_STEP", "-3"},
		{"context step above 100", "VOXDESK_CONTEXT_STEP", "200"},
		{"negative batch size", "VOXDESK_RETRAIN_BATCH", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() expected error with %s=%s", tt.key, tt.val)
			}
		})
	}
}
