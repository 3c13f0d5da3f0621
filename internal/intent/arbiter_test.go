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

import "testing"

func TestArbiterDecide(t *testing.T) {
	a := NewArbiter(0.3, CategoryWebSearch, 0.3)

	ruleMatch := &RuleMatch{Rule: "power_control", Category: CategorySystemControl, Confidence: 0.95}

	tests := []struct {
		name            string
		ruleMatch       *RuleMatch
		modelCategory   Category
		modelConfidence float64
		wantCategory    Category
		wantConfidence  float64
		wantMethod      Method
	}{
		{
			name:            "rule beats confident model",
			ruleMatch:       ruleMatch,
			modelCategory:   CategoryScreenshot,
			modelConfidence: 0.99,
			wantCategory:    CategorySystemControl,
			wantConfidence:  0.95,
			wantMethod:      MethodRule,
		},
		{
			name:            "model wins above threshold",
			ruleMatch:       nil,
			modelCategory:   CategoryScreenshot,
			modelConfidence: 0.7,
			wantCategory:    CategoryScreenshot,
			wantConfidence:  0.7,
			wantMethod:      MethodModel,
		},
		{
			name:            "model at exact threshold wins",
			ruleMatch:       nil,
			modelCategory:   CategoryScreenshot,
			modelConfidence: 0.3,
			wantCategory:    CategoryScreenshot,
			wantConfidence:  0.3,
			wantMethod:      MethodModel,
		},
		{
			name:            "low confidence model falls back",
			ruleMatch:       nil,
			modelCategory:   CategoryScreenshot,
			modelConfidence: 0.29,
			wantCategory:    CategoryWebSearch,
			wantConfidence:  0.3,
			wantMethod:      MethodFallback,
		},
		{
			name:            "unknown model falls back regardless of confidence",
			ruleMatch:       nil,
			modelCategory:   CategoryUnknown,
			modelConfidence: 0.9,
			wantCategory:    CategoryWebSearch,
			wantConfidence:  0.3,
			wantMethod:      MethodFallback,
		},
		{
			name:            "untrained model falls back",
			ruleMatch:       nil,
			modelCategory:   CategoryUnknown,
			modelConfidence: 0.0,
			wantCategory:    CategoryWebSearch,
			wantConfidence:  0.3,
			wantMethod:      MethodFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, confidence, method := a.Decide(tt.ruleMatch, tt.modelCategory, tt.modelConfidence)
			if category != tt.wantCategory {
				t.Errorf("category = %s, want %s", category, tt.wantCategory)
			}
			if confidence != tt.wantConfidence {
				t.Errorf("confidence = %f, want %f", confidence, tt.wantConfidence)
			}
			if method != tt.wantMethod {
				t.Errorf("method = %s, want %s", method, tt.wantMethod)
			}
		})
	}
}

func TestArbiterFallback(t *testing.T) {
	a := NewArbiter(0.3, CategoryWebSearch, 0.3)

	category, confidence, method := a.Fallback()
	if category != CategoryWebSearch || confidence != 0.3 || method != MethodFallback {
		t.Errorf("Fallback() = (%s, %f, %s), want (web_search, 0.3, fallback)",
			category, confidence, method)
	}
}
