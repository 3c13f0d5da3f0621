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
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/voxdesk/voxdesk-hub/internal/intent"
	"github.com/voxdesk/voxdesk-hub/internal/security"
)

//go:embed categories.yaml
var defaultManifest []byte

// Handler describes the desktop capability bound to a category: where
// routed intents for it are published and whether it is currently enabled.
type Handler struct {
	Category    string `yaml:"category" json:"category"`
	Subject     string `yaml:"subject" json:"subject"`
	Description string `yaml:"description" json:"description"`
	Enabled     bool   `yaml:"enabled" json:"enabled"`
}

type manifest struct {
	Handlers []Handler `yaml:"handlers"`
}

// Registry maps categories to their capability handlers. A rule or model
// category with no registered handler is a configuration error, caught at
// startup rather than per utterance.
type Registry struct {
	handlers map[intent.Category]Handler
}

// NewRegistry loads the built-in category manifest
func NewRegistry() (*Registry, error) {
	return newFromYAML(defaultManifest)
}

// LoadRegistry reads a category manifest from a YAML file. An empty path
// falls back to the built-in manifest.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category manifest: %w", err)
	}

	return newFromYAML(data)
}

func newFromYAML(data []byte) (*Registry, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse category manifest: %w", err)
	}

	if len(m.Handlers) == 0 {
		return nil, fmt.Errorf("category manifest defines no handlers")
	}

	handlers := make(map[intent.Category]Handler, len(m.Handlers))
	for _, h := range m.Handlers {
		if err := security.ValidateCategoryID(h.Category); err != nil {
			return nil, fmt.Errorf("invalid category %q in manifest: %w", h.Category, err)
		}
		if h.Subject == "" {
			return nil, fmt.Errorf("category %q has no subject", h.Category)
		}
		if _, exists := handlers[intent.Category(h.Category)]; exists {
			return nil, fmt.Errorf("duplicate category %q in manifest", h.Category)
		}
		handlers[intent.Category(h.Category)] = h
	}

	return &Registry{handlers: handlers}, nil
}

// Lookup returns the handler for a category
func (r *Registry) Lookup(category intent.Category) (Handler, bool) {
	h, ok := r.handlers[category]
	return h, ok
}

// Categories returns all registered categories, sorted
func (r *Registry) Categories() []intent.Category {
	categories := make([]intent.Category, 0, len(r.handlers))
	for category := range r.handlers {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories
}

// Handlers returns all handlers ordered by category
func (r *Registry) Handlers() []Handler {
	handlers := make([]Handler, 0, len(r.handlers))
	for _, category := range r.Categories() {
		handlers = append(handlers, r.handlers[category])
	}
	return handlers
}

// Validate checks that every category the rule layer can produce has a
// registered handler. Called at startup; a miss here would otherwise
// surface as misrouted intents at runtime.
func (r *Registry) Validate(rules []intent.Rule) error {
	for _, rule := range rules {
		if _, ok := r.handlers[rule.Category]; !ok {
			return fmt.Errorf("rule %q routes to unregistered category %q", rule.Name, rule.Category)
		}
	}

	return nil
}

// ValidateDataset checks that every dataset category has a registered handler
func (r *Registry) ValidateDataset(dataset map[intent.Category][]string) error {
	for category := range dataset {
		if _, ok := r.handlers[category]; !ok {
			return fmt.Errorf("dataset contains unregistered category %q", category)
		}
	}
	return nil
}
