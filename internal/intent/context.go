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
	"sync"
	"time"
)

// State is the single most-recent-wins context record for a session
type State struct {
	LastCategory   Category   `json:"last_category"`
	LastParameters Parameters `json:"last_parameters"`
	LastCommand    string     `json:"last_command"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ContextResolver rewrites elliptical follow-ups ("a bit more", "set it to
// 80%") against the previous successfully classified command. With no prior
// context the resolver declines and the utterance falls through to normal
// classification.
type ContextResolver struct {
	mu    sync.Mutex
	state *State
	step  int
}

var (
	stepUpPattern   = regexp.MustCompile(`^(?:a (?:bit|little) )?(?:more|louder|brighter|higher)(?: by (\d{1,3}))?$`)
	stepDownPattern = regexp.MustCompile(`^(?:a (?:bit|little) )?(?:less|quieter|dimmer|lower)(?: by (\d{1,3}))?$`)
	againPattern    = regexp.MustCompile(`^(?:do (?:it|that) )?again$`)
	setItPattern    = regexp.MustCompile(`^set it to (\d{1,3})\s*(?:%|percent)?$`)
)

// NewContextResolver creates a resolver with the given adjustment step
func NewContextResolver(step int) *ContextResolver {
	return &ContextResolver{step: step}
}

// IsAnaphoric reports whether normalized text only makes sense relative to
// a previous command
func (cr *ContextResolver) IsAnaphoric(normalized string) bool {
	return stepUpPattern.MatchString(normalized) ||
		stepDownPattern.MatchString(normalized) ||
		againPattern.MatchString(normalized) ||
		setItPattern.MatchString(normalized)
}

// Resolve rewrites an anaphoric utterance against the stored context.
// The bool result is false when the utterance is not anaphoric or no
// context exists; the caller then classifies normally.
func (cr *ContextResolver) Resolve(normalized string) (Category, Parameters, bool) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.state == nil || !cr.IsAnaphoric(normalized) {
		return CategoryUnknown, nil, false
	}

	params := cr.state.LastParameters.Clone()

	switch {
	case stepUpPattern.MatchString(normalized):
		cr.adjustLevel(params, cr.amountFrom(stepUpPattern, normalized))
	case stepDownPattern.MatchString(normalized):
		cr.adjustLevel(params, -cr.amountFrom(stepDownPattern, normalized))
	case setItPattern.MatchString(normalized):
		m := setItPattern.FindStringSubmatch(normalized)
		if v, err := strconv.Atoi(m[1]); err == nil {
			params[SlotLevel] = clampLevel(v)
		}
	case againPattern.MatchString(normalized):
		// Repeat with the inherited parameters as-is
	}

	// A contextual command inherits the category and updates numeric
	// fields in place; it never overwrites the context with itself.
	cr.state.LastParameters = params.Clone()

	return cr.state.LastCategory, params, true
}

// Observe records a successfully classified non-contextual command.
// Fallback results do not establish context.
func (cr *ContextResolver) Observe(result *Classification) {
	if result == nil || result.Method == MethodFallback || result.Method == MethodContext {
		return
	}
	if result.Category == CategoryUnknown {
		return
	}

	cr.mu.Lock()
	defer cr.mu.Unlock()

	cr.state = &State{
		LastCategory:   result.Category,
		LastParameters: result.Parameters.Clone(),
		LastCommand:    result.Utterance.Normalized,
		UpdatedAt:      time.Now(),
	}
}

// State returns a copy of the current context, or nil when stateless
func (cr *ContextResolver) State() *State {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.state == nil {
		return nil
	}

	copied := *cr.state
	copied.LastParameters = cr.state.LastParameters.Clone()
	return &copied
}

// SetState seeds the resolver, e.g. when a session resumes
func (cr *ContextResolver) SetState(state *State) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	cr.state = state
}

// Reset drops the context, returning the resolver to the stateless state
func (cr *ContextResolver) Reset() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	cr.state = nil
}

func (cr *ContextResolver) amountFrom(pattern *regexp.Regexp, normalized string) int {
	m := pattern.FindStringSubmatch(normalized)
	if len(m) > 1 && m[1] != "" {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return v
		}
	}
	return cr.step
}

// adjustLevel shifts the percentage parameter by delta, clamped to [0,100].
// Without a prior level the delta itself is recorded as a relative amount
// for the handler to apply.
func (cr *ContextResolver) adjustLevel(params Parameters, delta int) {
	if level, ok := params[SlotLevel]; ok {
		params[SlotLevel] = clampLevel(level + delta)
		return
	}
	params[SlotAmount] = delta
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}
