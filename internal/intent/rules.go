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
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps phrase containment or a regular expression to a category at a
// fixed confidence. Rules are evaluated in order and the first match wins,
// so safety-relevant power rules must stay ahead of generic keyword rules.
type Rule struct {
	Name       string   `yaml:"name"`
	Category   Category `yaml:"category"`
	Confidence float64  `yaml:"confidence"`
	Phrases    []string `yaml:"phrases,omitempty"`
	Pattern    string   `yaml:"pattern,omitempty"`
}

// RuleMatch is the result of a fired rule
type RuleMatch struct {
	Rule       string
	Category   Category
	Confidence float64
}

// compiledRule is a Rule with its regexp pre-compiled
type compiledRule struct {
	rule    Rule
	pattern *regexp.Regexp
}

// RuleMatcher evaluates an ordered rule table against normalized text
type RuleMatcher struct {
	rules []compiledRule
}

// ruleFile is the YAML shape for an external rule table
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultRules returns the built-in rule table. Ordering is deliberate:
// lock/shutdown/restart are checked before anything that could shadow them.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "power_control",
			Category:   CategorySystemControl,
			Confidence: 0.95,
			Phrases: []string{
				"lock computer", "lock system", "lock pc", "lock the screen",
				"shutdown", "restart computer", "restart system", "restart pc", "restart",
			},
		},
		{
			Name:       "session_control",
			Category:   CategorySystemControl,
			Confidence: 0.95,
			Phrases:    []string{"logout", "log off", "sleep mode", "hibernate"},
		},
		{
			Name:       "time_date",
			Category:   CategorySystemInfo,
			Confidence: 0.95,
			Phrases: []string{
				"what time", "current time", "what's the time", "tell me the time",
				"what date", "current date", "what's the date", "today's date", "what day",
			},
		},
		{
			Name:       "system_info",
			Category:   CategorySystemInfo,
			Confidence: 0.95,
			Phrases: []string{
				"battery", "cpu", "memory", "ram", "disk space", "wifi",
				"system information", "system info", "temperature",
			},
		},
		{
			Name:       "window_control",
			Category:   CategorySystemControl,
			Confidence: 0.95,
			Phrases:    []string{"minimize", "maximize", "restore window", "close window"},
		},
		{
			Name:       "volume_control",
			Category:   CategorySystemControl,
			Confidence: 0.95,
			Phrases: []string{
				"volume up", "volume down", "increase volume", "decrease volume",
				"set volume", "mute", "unmute",
			},
		},
		{
			Name:       "brightness_control",
			Category:   CategorySystemControl,
			Confidence: 0.95,
			Phrases: []string{
				"brightness up", "brightness down", "increase brightness",
				"decrease brightness", "set brightness",
			},
		},
		{
			Name:       "screenshot",
			Category:   CategoryScreenshot,
			Confidence: 0.9,
			Phrases:    []string{"screenshot", "capture screen", "grab screen", "save screen"},
		},
		{
			Name:       "youtube_search",
			Category:   CategoryYouTubeSearch,
			Confidence: 0.9,
			Pattern:    `(youtube|video|watch).*(search|find|look)|(search|find|look).*(youtube|videos)`,
		},
		{
			Name:       "youtube_play",
			Category:   CategoryYouTubePlay,
			Confidence: 0.9,
			Pattern:    `play\b.*\b(youtube|video)|\b(youtube|video)\b.*\bplay`,
		},
		{
			Name:       "video_transport",
			Category:   CategoryVideoControl,
			Confidence: 0.95,
			Pattern:    `^(play|pause|stop|resume|next video|previous video)$`,
		},
		{
			Name:       "app_launch",
			Category:   CategorySystemControl,
			Confidence: 0.9,
			Pattern:    `^(open|launch|start)\s+\w+`,
		},
	}
}

// NewRuleMatcher compiles an ordered rule table
func NewRuleMatcher(rules []Rule) (*RuleMatcher, error) {
	rm := &RuleMatcher{}

	for i, rule := range rules {
		if rule.Category == "" {
			return nil, fmt.Errorf("rule %d (%s): category is required", i, rule.Name)
		}
		if rule.Confidence <= 0 || rule.Confidence > 1 {
			return nil, fmt.Errorf("rule %d (%s): confidence out of range: %f", i, rule.Name, rule.Confidence)
		}
		if len(rule.Phrases) == 0 && rule.Pattern == "" {
			return nil, fmt.Errorf("rule %d (%s): needs phrases or a pattern", i, rule.Name)
		}

		cr := compiledRule{rule: rule}
		if rule.Pattern != "" {
			pattern, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %d (%s): invalid pattern: %w", i, rule.Name, err)
			}
			cr.pattern = pattern
		}

		rm.rules = append(rm.rules, cr)
	}

	return rm, nil
}

// LoadRules reads a rule table from a YAML file
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s contains no rules", path)
	}

	return file.Rules, nil
}

// Match evaluates rules in order against normalized text and returns the
// first hit. A nil result is not an error; it signals fall-through to the
// statistical classifier.
func (rm *RuleMatcher) Match(normalized string) *RuleMatch {
	if normalized == "" {
		return nil
	}

	for _, cr := range rm.rules {
		if cr.matches(normalized) {
			return &RuleMatch{
				Rule:       cr.rule.Name,
				Category:   cr.rule.Category,
				Confidence: cr.rule.Confidence,
			}
		}
	}

	return nil
}

// Rules returns the rule table, for registry validation at startup
func (rm *RuleMatcher) Rules() []Rule {
	out := make([]Rule, 0, len(rm.rules))
	for _, cr := range rm.rules {
		out = append(out, cr.rule)
	}
	return out
}

func (cr *compiledRule) matches(text string) bool {
	for _, phrase := range cr.rule.Phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}

	if cr.pattern != nil && cr.pattern.MatchString(text) {
		return true
	}

	return false
}
