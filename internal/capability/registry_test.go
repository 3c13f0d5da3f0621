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

package capability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/voxdesk/voxdesk-hub/internal/intent"
)

func TestBuiltinManifestCoversDefaultRules(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	// Every category the built-in rule table can produce must be routable
	if err := registry.Validate(intent.DefaultRules()); err != nil {
		t.Errorf("Validate(DefaultRules()) error = %v", err)
	}

	// The fallback and reserved categories are registered too
	for _, category := range []intent.Category{intent.CategoryWebSearch, intent.CategoryUnknown} {
		if _, ok := registry.Lookup(category); !ok {
			t.Errorf("Lookup(%s) = false, want registered", category)
		}
	}
}

func TestLookupSubject(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	handler, ok := registry.Lookup(intent.CategoryScreenshot)
	if !ok {
		t.Fatal("screenshot handler not registered")
	}
	if handler.Subject != "voxdesk.intent.screenshot" {
		t.Errorf("Subject = %s", handler.Subject)
	}
	if !handler.Enabled {
		t.Error("built-in handlers should be enabled")
	}
}

func TestValidateFailsForUnregisteredCategory(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	rules := []intent.Rule{
		{Name: "rogue", Category: intent.Category("teleport"), Confidence: 0.9, Phrases: []string{"beam me up"}},
	}
	if err := registry.Validate(rules); err == nil {
		t.Error("Validate() expected error for rule routing to unregistered category")
	}
}

func TestLoadRegistryFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")

	content := `handlers:
  - category: web_search
    subject: custom.intent.web_search
    enabled: true
  - category: screenshot
    subject: custom.intent.screenshot
    enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	registry, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}

	handler, ok := registry.Lookup(intent.CategoryWebSearch)
	if !ok || handler.Subject != "custom.intent.web_search" {
		t.Errorf("Lookup(web_search) = (%+v, %t)", handler, ok)
	}

	if handler, _ := registry.Lookup(intent.CategoryScreenshot); handler.Enabled {
		t.Error("disabled handler should stay disabled")
	}

	if len(registry.Categories()) != 2 {
		t.Errorf("Categories() = %v, want 2", registry.Categories())
	}
}

func TestLoadRegistryEmptyPathUsesBuiltin(t *testing.T) {
	registry, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry(\"\") error = %v", err)
	}
	if _, ok := registry.Lookup(intent.CategoryScreenshot); !ok {
		t.Error("built-in manifest should register screenshot")
	}
}

func TestManifestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no handlers", "handlers: []\n"},
		{"invalid category id", "handlers:\n  - category: 'Bad Name!'\n    subject: x.y\n"},
		{"missing subject", "handlers:\n  - category: web_search\n"},
		{"duplicate category", "handlers:\n  - category: web_search\n    subject: a.b\n  - category: web_search\n    subject: c.d\n"},
		{"malformed yaml", "handlers: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newFromYAML([]byte(tt.yaml)); err == nil {
				t.Errorf("newFromYAML() expected error for %s", tt.name)
			}
		})
	}
}
