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

func TestNormalize(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase and trim", "  Take A Screenshot  ", "take a screenshot"},
		{"shutdown variant", "shut down the computer", "shutdown the computer"},
		{"power off variant", "power off", "shutdown"},
		{"logout variant", "please sign out now", "please logout now"},
		{"restart variant", "reboot", "restart"},
		{"screenshot variant", "take a screen shot", "take a screenshot"},
		{"brightness variant", "set screen brightness to 50", "set brightness to 50"},
		{"volume variant", "turn the vol up", "turn the volume up"},
		{"british spelling", "maximise the window", "maximize the window"},
		{"whole word only", "volumes of data", "volumes of data"},
		{"whitespace collapse", "open    chrome", "open chrome"},
		{"empty input", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := NewNormalizer()

	inputs := []string{
		"shut down the computer",
		"take a screen shot",
		"Set Screen Brightness to 50%",
	}

	for _, input := range inputs {
		once := n.Normalize(input)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNewUtterance(t *testing.T) {
	n := NewNormalizer()

	u := n.NewUtterance("  Shut Down  ")
	if u.Raw != "  Shut Down  " {
		t.Errorf("Raw = %q, want original input preserved", u.Raw)
	}
	if u.Normalized != "shutdown" {
		t.Errorf("Normalized = %q, want %q", u.Normalized, "shutdown")
	}
	if u.ReceivedAt.IsZero() {
		t.Error("ReceivedAt should be set")
	}
}
