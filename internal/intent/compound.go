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
	"strings"
)

// CompoundSplitter detects multi-intent utterances joined by conjunctions
// or semicolons and yields the ordered sub-utterances.
type CompoundSplitter struct {
	separator *regexp.Regexp
}

// Fixed expressions where "and" joins a single entity, not two commands.
var compoundExclusions = []string{
	"rock and roll", "rhythm and blues", "black and white", "salt and pepper",
	"peanut butter and jelly", "research and development", "arts and crafts",
}

// NewCompoundSplitter builds the conjunction splitter. Separators match as
// whole tokens only, so "sandwich" never splits on "and".
func NewCompoundSplitter() *CompoundSplitter {
	// Longer alternatives first so "and then" is one separator, not two
	return &CompoundSplitter{
		separator: regexp.MustCompile(`\s+(?:and then|and also|then also|and|then|also)\s+|\s*;\s*`),
	}
}

// Split returns the ordered sub-utterances of text. A single-element slice
// means the utterance is not compound.
func (cs *CompoundSplitter) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []string{""}
	}

	lower := strings.ToLower(trimmed)
	for _, exclusion := range compoundExclusions {
		if strings.Contains(lower, exclusion) {
			return []string{trimmed}
		}
	}

	parts := cs.separator.Split(trimmed, -1)

	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if segment := strings.TrimSpace(part); segment != "" {
			segments = append(segments, segment)
		}
	}

	if len(segments) == 0 {
		return []string{trimmed}
	}

	return segments
}

// IsCompound reports whether text would split into multiple segments
func (cs *CompoundSplitter) IsCompound(text string) bool {
	return len(cs.Split(text)) > 1
}
