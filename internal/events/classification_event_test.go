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

package events

import (
	"errors"
	"testing"
	"time"

	"github.com/voxdesk/voxdesk-hub/internal/intent"
)

func TestNewClassificationEvent(t *testing.T) {
	event := NewClassificationEvent("session-1")

	if event.UUID == "" {
		t.Error("UUID should be generated")
	}
	if event.SessionID != "session-1" {
		t.Errorf("SessionID = %s", event.SessionID)
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if !event.Success {
		t.Error("new events should default to success")
	}
	if event.Parameters == nil {
		t.Error("Parameters should be initialized")
	}
}

func TestFromClassification(t *testing.T) {
	event := NewClassificationEvent("session-1")
	event.FromClassification(&intent.Classification{
		Utterance:  intent.Utterance{Raw: "Set Volume to 70%", Normalized: "set volume to 70%"},
		Category:   intent.CategorySystemControl,
		Confidence: 0.95,
		Method:     intent.MethodRule,
		Parameters: intent.Parameters{intent.SlotLevel: 70},
	})

	if event.RawText != "Set Volume to 70%" {
		t.Errorf("RawText = %q", event.RawText)
	}
	if event.NormalizedText != "set volume to 70%" {
		t.Errorf("NormalizedText = %q", event.NormalizedText)
	}
	if event.Category != "system_control" {
		t.Errorf("Category = %s", event.Category)
	}
	if event.Method != "rule" {
		t.Errorf("Method = %s", event.Method)
	}
	if event.Parameters[intent.SlotLevel] != 70 {
		t.Errorf("Parameters = %v", event.Parameters)
	}
	if event.ProcessingTime < 0 {
		t.Errorf("ProcessingTime = %d", event.ProcessingTime)
	}

	if err := event.IsValid(); err != nil {
		t.Errorf("IsValid() = %v after FromClassification", err)
	}
}

func TestSetError(t *testing.T) {
	event := NewClassificationEvent("session-1")
	event.SetError(errors.New("handler timed out"))

	if event.Success {
		t.Error("Success should be false after SetError")
	}
	if event.ErrorMessage != "handler timed out" {
		t.Errorf("ErrorMessage = %q", event.ErrorMessage)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ClassificationEvent)
	}{
		{"missing uuid", func(e *ClassificationEvent) { e.UUID = "" }},
		{"zero timestamp", func(e *ClassificationEvent) { e.Timestamp = time.Time{} }},
		{"missing category", func(e *ClassificationEvent) { e.Category = "" }},
		{"confidence above one", func(e *ClassificationEvent) { e.Confidence = 1.5 }},
		{"negative confidence", func(e *ClassificationEvent) { e.Confidence = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := NewClassificationEvent("session-1")
			event.Category = "web_search"
			tt.mutate(event)

			if err := event.IsValid(); err == nil {
				t.Errorf("IsValid() = nil, want error for %s", tt.name)
			}
		})
	}
}

func TestParametersJSONRoundTrip(t *testing.T) {
	event := NewClassificationEvent("session-1")
	event.Parameters = intent.Parameters{intent.SlotLevel: 70, intent.SlotIndex: 1}

	raw, err := event.ParametersJSON()
	if err != nil {
		t.Fatalf("ParametersJSON() error = %v", err)
	}

	restored := NewClassificationEvent("session-2")
	if err := restored.SetParametersFromJSON(raw); err != nil {
		t.Fatalf("SetParametersFromJSON() error = %v", err)
	}
	if restored.Parameters[intent.SlotLevel] != 70 || restored.Parameters[intent.SlotIndex] != 1 {
		t.Errorf("Parameters = %v", restored.Parameters)
	}
}

func TestParametersJSONEdgeCases(t *testing.T) {
	event := NewClassificationEvent("session-1")
	event.Parameters = nil

	raw, err := event.ParametersJSON()
	if err != nil {
		t.Fatalf("ParametersJSON() error = %v", err)
	}
	if raw != "{}" {
		t.Errorf("ParametersJSON() = %q for nil map, want {}", raw)
	}

	for _, input := range []string{"", "{}"} {
		if err := event.SetParametersFromJSON(input); err != nil {
			t.Errorf("SetParametersFromJSON(%q) error = %v", input, err)
		}
		if event.Parameters == nil {
			t.Errorf("Parameters nil after SetParametersFromJSON(%q)", input)
		}
	}

	if err := event.SetParametersFromJSON("not json"); err == nil {
		t.Error("SetParametersFromJSON() expected error for malformed input")
	}
}
