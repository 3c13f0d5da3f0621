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
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voxdesk/voxdesk-hub/internal/intent"
)

// ClassificationEvent records one classified utterance with full
// traceability, from raw text through the final routing decision
type ClassificationEvent struct {
	// Core identification
	UUID      string    `json:"uuid" db:"uuid"`
	SessionID string    `json:"session_id" db:"session_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// Utterance
	RawText        string `json:"raw_text" db:"raw_text"`
	NormalizedText string `json:"normalized_text" db:"normalized_text"`

	// Classification results
	Category   string            `json:"category" db:"category"`
	Method     string            `json:"method" db:"method"`
	Confidence float64           `json:"confidence" db:"confidence"`
	Parameters intent.Parameters `json:"parameters" db:"parameters"`

	// Outcome
	ProcessingTime int64  `json:"processing_time_ms" db:"processing_time_ms"`
	Success        bool   `json:"success" db:"success"`
	ErrorMessage   string `json:"error_message,omitempty" db:"error_message"`
}

// NewClassificationEvent creates an event with a generated UUID and the
// current timestamp
func NewClassificationEvent(sessionID string) *ClassificationEvent {
	return &ClassificationEvent{
		UUID:       uuid.NewString(),
		SessionID:  sessionID,
		Timestamp:  time.Now(),
		Parameters: intent.Parameters{},
		Success:    true,
	}
}

// FromClassification fills the event from an engine result
func (ce *ClassificationEvent) FromClassification(result *intent.Classification) {
	ce.RawText = result.Utterance.Raw
	ce.NormalizedText = result.Utterance.Normalized
	ce.Category = string(result.Category)
	ce.Method = string(result.Method)
	ce.Confidence = result.Confidence
	ce.Parameters = result.Parameters.Clone()
	ce.ProcessingTime = time.Since(ce.Timestamp).Milliseconds()
}

// SetError marks the event as failed with an error message
func (ce *ClassificationEvent) SetError(err error) {
	ce.Success = false
	ce.ErrorMessage = err.Error()
	ce.ProcessingTime = time.Since(ce.Timestamp).Milliseconds()
}

// ParametersJSON returns parameters as a JSON string for database storage
func (ce *ClassificationEvent) ParametersJSON() (string, error) {
	if ce.Parameters == nil {
		return "{}", nil
	}

	data, err := json.Marshal(ce.Parameters)
	if err != nil {
		return "", fmt.Errorf("failed to marshal parameters: %w", err)
	}

	return string(data), nil
}

// SetParametersFromJSON parses a JSON string into the parameters map
func (ce *ClassificationEvent) SetParametersFromJSON(jsonStr string) error {
	if jsonStr == "" || jsonStr == "{}" {
		ce.Parameters = intent.Parameters{}
		return nil
	}

	var params intent.Parameters
	if err := json.Unmarshal([]byte(jsonStr), &params); err != nil {
		return fmt.Errorf("failed to unmarshal parameters JSON: %w", err)
	}

	ce.Parameters = params
	return nil
}

// IsValid performs basic validation on the event
func (ce *ClassificationEvent) IsValid() error {
	if ce.UUID == "" {
		return fmt.Errorf("UUID is required")
	}

	if ce.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	if ce.Category == "" {
		return fmt.Errorf("category is required")
	}

	if ce.Confidence < 0 || ce.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1")
	}

	return nil
}

// String returns a human-readable representation of the event
func (ce *ClassificationEvent) String() string {
	return fmt.Sprintf("ClassificationEvent{UUID: %s, Category: %s, Method: %s, Text: %q, Confidence: %.2f}",
		ce.UUID, ce.Category, ce.Method, ce.NormalizedText, ce.Confidence)
}
