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

package security

import "testing"

func TestSanitizeLogInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean text", "set volume to 70", "set volume to 70"},
		{"newline injection", "hello\nFAKE LOG ENTRY", "helloFAKE LOG ENTRY"},
		{"carriage return", "hello\r\nworld", "helloworld"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeLogInput(tt.input); got != tt.want {
				t.Errorf("SanitizeLogInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateCategoryID(t *testing.T) {
	valid := []string{"web_search", "screenshot", "youtube_play", "a1"}
	for _, id := range valid {
		if err := ValidateCategoryID(id); err != nil {
			t.Errorf("ValidateCategoryID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{"", "Web_Search", "web search", "web-search", "web.search", "cat\n"}
	for _, id := range invalid {
		if err := ValidateCategoryID(id); err == nil {
			t.Errorf("ValidateCategoryID(%q) = nil, want error", id)
		}
	}
}
