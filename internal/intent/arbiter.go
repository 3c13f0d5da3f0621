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

// Arbiter merges the rule matcher and statistical classifier outputs into
// one result under a fixed precedence:
//
//  1. a fired rule always wins, at its fixed confidence
//  2. a model prediction at or above the low-confidence threshold
//  3. the configured fallback category at a fixed low confidence
//
// An unclassifiable command is treated as an open-ended search rather than
// silently dropped or misrouted to a destructive system action.
type Arbiter struct {
	lowConfidenceThreshold float64
	fallbackCategory       Category
	fallbackConfidence     float64
}

// NewArbiter creates an arbiter with the given confidence policy
func NewArbiter(lowConfidenceThreshold float64, fallbackCategory Category, fallbackConfidence float64) *Arbiter {
	return &Arbiter{
		lowConfidenceThreshold: lowConfidenceThreshold,
		fallbackCategory:       fallbackCategory,
		fallbackConfidence:     fallbackConfidence,
	}
}

// Decide applies the precedence policy. ruleMatch may be nil (no rule
// fired); modelCategory/modelConfidence come from the classifier, which
// reports unknown at zero when untrained.
func (a *Arbiter) Decide(ruleMatch *RuleMatch, modelCategory Category, modelConfidence float64) (Category, float64, Method) {
	if ruleMatch != nil {
		return ruleMatch.Category, ruleMatch.Confidence, MethodRule
	}

	if modelCategory != CategoryUnknown && modelConfidence >= a.lowConfidenceThreshold {
		return modelCategory, clampConfidence(modelConfidence), MethodModel
	}

	return a.fallbackCategory, a.fallbackConfidence, MethodFallback
}

// Fallback returns the arbiter's fallback result, used when classification
// fails internally for any reason.
func (a *Arbiter) Fallback() (Category, float64, Method) {
	return a.fallbackCategory, a.fallbackConfidence, MethodFallback
}

func clampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
