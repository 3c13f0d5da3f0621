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
	"regexp"
	"strconv"
	"strings"
)

// ParamExtractor pulls typed slots out of normalized text. Extraction is
// best-effort and additive: a missing slot is not an error, and multiple
// non-conflicting slots may be returned for one utterance.
type ParamExtractor struct{}

// NewParamExtractor creates a parameter extractor
func NewParamExtractor() *ParamExtractor {
	return &ParamExtractor{}
}

var (
	// "set volume to 70%", "brightness at 40 percent", "to 70"
	levelPattern = regexp.MustCompile(`\b(?:to|at)\s+(\d{1,3})\s*(?:%|percent)?(?:\s|$)`)
	// "70%" anywhere, for utterances like "volume 70%"
	percentPattern = regexp.MustCompile(`\b(\d{1,3})\s*(?:%|percent\b)`)
	// "increase by 15", "up by 20"
	amountPattern = regexp.MustCompile(`\bby\s+(\d{1,3})\b`)
	// "result 3", "video number 2", "item 4"
	cardinalIndexPattern = regexp.MustCompile(`\b(?:result|video|item|number)\s+(\d{1,2})\b`)
	// "skip forward 30 seconds", "rewind 2 minutes"
	durationPattern = regexp.MustCompile(`\b(\d{1,4})\s*(seconds?|secs?|minutes?|mins?)\b`)
)

// Spoken ordinals map to 1-based positions; users count from one,
// handlers index from zero.
var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

// Extract returns all slots found in the normalized text
func (pe *ParamExtractor) Extract(normalized string) Parameters {
	params := Parameters{}
	if normalized == "" {
		return params
	}

	if m := levelPattern.FindStringSubmatch(normalized); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			params[SlotLevel] = v
		}
	} else if m := percentPattern.FindStringSubmatch(normalized); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			params[SlotLevel] = v
		}
	}

	if m := amountPattern.FindStringSubmatch(normalized); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			params[SlotAmount] = v
		}
	}

	if index, ok := pe.extractIndex(normalized); ok {
		params[SlotIndex] = index
	}

	if m := durationPattern.FindStringSubmatch(normalized); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			if strings.HasPrefix(m[2], "min") {
				v *= 60
			}
			params[SlotDuration] = v
		}
	}

	return params
}

// extractIndex finds an ordinal ("second result") or cardinal ("video 3")
// index. User input is 1-based; the returned index is zero-based, clamped
// at zero.
func (pe *ParamExtractor) extractIndex(normalized string) (int, bool) {
	for word, position := range ordinalWords {
		if containsWord(normalized, word) {
			return clampIndex(position - 1), true
		}
	}

	if m := cardinalIndexPattern.FindStringSubmatch(normalized); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return clampIndex(v - 1), true
		}
	}

	return 0, false
}

func clampIndex(index int) int {
	if index < 0 {
		return 0
	}
	return index
}

func containsWord(text, word string) bool {
	for _, field := range strings.Fields(text) {
		if field == word {
			return true
		}
	}
	return false
}
