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

package intent

import (
	"fmt"
	"time"
)

// Category labels a class of user intent. The live set comes from the
// capability registry; the constants below cover the built-in handlers plus
// the reserved unknown category.
type Category string

const (
	CategoryUnknown       Category = "unknown"
	CategoryWebSearch     Category = "web_search"
	CategorySystemControl Category = "system_control"
	CategoryMediaControl  Category = "media_control"
	CategorySystemInfo    Category = "system_info"
	CategoryScreenshot    Category = "screenshot"
	CategoryYouTubeSearch Category = "youtube_search"
	CategoryYouTubePlay   Category = "youtube_play"
	CategoryVideoControl  Category = "video_control"
)

// Method records which stage of the pipeline produced a classification
type Method string

const (
	MethodRule     Method = "rule"
	MethodModel    Method = "model"
	MethodContext  Method = "context"
	MethodFallback Method = "fallback"
)

// Slot names a typed parameter extracted from an utterance
type Slot string

const (
	SlotLevel    Slot = "level"    // percentage, 0-100
	SlotAmount   Slot = "amount"   // relative adjustment
	SlotIndex    Slot = "index"    // zero-based ordinal/cardinal index
	SlotDuration Slot = "duration" // seconds
)

// Parameters maps slot names to extracted integer values
type Parameters map[Slot]int

// Clone returns an independent copy of the parameter map
func (p Parameters) Clone() Parameters {
	if p == nil {
		return Parameters{}
	}
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Utterance is one recognized input, immutable after normalization
type Utterance struct {
	Raw        string    `json:"raw"`
	Normalized string    `json:"normalized"`
	ReceivedAt time.Time `json:"received_at"`
}

// Classification is the final result for one utterance
type Classification struct {
	Utterance  Utterance  `json:"utterance"`
	Category   Category   `json:"category"`
	Confidence float64    `json:"confidence"`
	Method     Method     `json:"method"`
	Parameters Parameters `json:"parameters"`
}

// IsValid performs basic invariant checks on the classification
func (c *Classification) IsValid() error {
	if c.Category == "" {
		return fmt.Errorf("category is required")
	}

	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1")
	}

	switch c.Method {
	case MethodRule, MethodModel, MethodContext, MethodFallback:
	default:
		return fmt.Errorf("unknown method: %s", c.Method)
	}

	return nil
}

// String returns a human-readable representation of the classification
func (c *Classification) String() string {
	return fmt.Sprintf("Classification{Category: %s, Method: %s, Confidence: %.2f, Text: %q}",
		c.Category, c.Method, c.Confidence, c.Utterance.Normalized)
}
