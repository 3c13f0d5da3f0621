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
	"time"
)

// variant maps a canonical form to the spoken/misspelled forms that should
// collapse into it. Substitution is whole-word only, so "volume" never fires
// inside "volumes of".
type variant struct {
	canonical string
	pattern   *regexp.Regexp
}

// Normalizer lowercases, trims and canonicalizes lexical variants
type Normalizer struct {
	variants []variant
}

// canonicalForms is ordered: multi-word variants are listed before their
// single-word fragments so "screen brightness" wins over "bright".
var canonicalForms = []struct {
	canonical string
	spoken    []string
}{
	{"shutdown", []string{"shut down", "shut-down", "shutdwn", "power off", "turn off computer"}},
	{"logout", []string{"log out", "log-out", "sign out", "signout"}},
	{"restart", []string{"re start", "re-start", "reboot"}},
	{"brightness", []string{"display brightness", "screen brightness"}},
	{"volume", []string{"vol", "sound level", "audio level"}},
	{"screenshot", []string{"screen shot", "screen capture", "screencap"}},
	{"maximize", []string{"maximise"}},
	{"minimize", []string{"minimise"}},
}

// NewNormalizer builds the whole-word substitution table
func NewNormalizer() *Normalizer {
	n := &Normalizer{}
	for _, form := range canonicalForms {
		for _, spoken := range form.spoken {
			n.variants = append(n.variants, variant{
				canonical: form.canonical,
				pattern:   regexp.MustCompile(`\b` + regexp.QuoteMeta(spoken) + `\b`),
			})
		}
	}
	return n
}

// Normalize produces the canonical form of raw input. It never fails; empty
// input yields an empty normalized text.
func (n *Normalizer) Normalize(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return ""
	}

	for _, v := range n.variants {
		text = v.pattern.ReplaceAllString(text, v.canonical)
	}

	// Collapse whitespace runs introduced by substitution
	text = strings.Join(strings.Fields(text), " ")

	return text
}

// NewUtterance normalizes raw text into an immutable Utterance
func (n *Normalizer) NewUtterance(raw string) Utterance {
	return Utterance{
		Raw:        raw,
		Normalized: n.Normalize(raw),
		ReceivedAt: time.Now(),
	}
}
