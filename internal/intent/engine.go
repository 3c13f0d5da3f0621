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

	"go.uber.org/zap"

	"github.com/voxdesk/voxdesk-hub/internal/logging"
	"github.com/voxdesk/voxdesk-hub/internal/security"
)

// Observer is notified after every classification. The server uses it to
// persist events and enqueue low-confidence commands for review without the
// engine importing either concern.
type Observer func(*Classification)

// EngineOptions configures a classification engine
type EngineOptions struct {
	Rules                  []Rule
	LowConfidenceThreshold float64
	FallbackCategory       Category
	FallbackConfidence     float64
	ContextStep            int
}

// Engine runs the full pipeline for one utterance: normalization, compound
// splitting, rule matching, statistical classification, arbitration, context
// resolution and parameter extraction. All collaborators are injected at
// construction; there is no shared global instance.
type Engine struct {
	normalizer *Normalizer
	splitter   *CompoundSplitter
	rules      *RuleMatcher
	classifier *Classifier
	arbiter    *Arbiter
	params     *ParamExtractor
	resolver   *ContextResolver
	observer   Observer
}

// NewEngine builds an engine from options. Zero-valued options fall back to
// the built-in defaults.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Rules == nil {
		opts.Rules = DefaultRules()
	}
	if opts.LowConfidenceThreshold == 0 {
		opts.LowConfidenceThreshold = 0.3
	}
	if opts.FallbackCategory == "" {
		opts.FallbackCategory = CategoryWebSearch
	}
	if opts.FallbackConfidence == 0 {
		opts.FallbackConfidence = 0.3
	}
	if opts.ContextStep == 0 {
		opts.ContextStep = 10
	}

	rules, err := NewRuleMatcher(opts.Rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}

	return &Engine{
		normalizer: NewNormalizer(),
		splitter:   NewCompoundSplitter(),
		rules:      rules,
		classifier: NewClassifier(),
		arbiter:    NewArbiter(opts.LowConfidenceThreshold, opts.FallbackCategory, opts.FallbackConfidence),
		params:     NewParamExtractor(),
		resolver:   NewContextResolver(opts.ContextStep),
	}, nil
}

// SetObserver registers a callback invoked after every classification
func (e *Engine) SetObserver(observer Observer) {
	e.observer = observer
}

// Classifier exposes the statistical classifier so the learning store can
// swap in retrained snapshots
func (e *Engine) Classifier() *Classifier {
	return e.classifier
}

// Resolver exposes the context resolver for session seeding and inspection
func (e *Engine) Resolver() *ContextResolver {
	return e.resolver
}

// Rules returns the active rule table
func (e *Engine) Rules() []Rule {
	return e.rules.Rules()
}

// Classify classifies a single utterance. It always returns a usable
// result and never panics: internal failures collapse into the fallback
// category.
func (e *Engine) Classify(text string) (result *Classification) {
	utterance := e.normalizer.NewUtterance(text)

	defer func() {
		if r := recover(); r != nil {
			logging.LogError(fmt.Errorf("classification panic: %v", r),
				"Recovered from classification failure",
				zap.String("text", security.SanitizeLogInput(text)))
			category, confidence, method := e.arbiter.Fallback()
			result = &Classification{
				Utterance:  utterance,
				Category:   category,
				Confidence: confidence,
				Method:     method,
				Parameters: Parameters{},
			}
		}
		if e.observer != nil && result != nil {
			e.observer(result)
		}
	}()

	if utterance.Normalized == "" {
		result = &Classification{
			Utterance:  utterance,
			Category:   CategoryUnknown,
			Confidence: 0.0,
			Method:     MethodFallback,
			Parameters: Parameters{},
		}
		return result
	}

	result = e.classifySegment(utterance)

	logging.LogClassification(string(result.Category), string(result.Method), result.Confidence,
		zap.String("text", security.SanitizeLogInput(utterance.Normalized)))

	return result
}

// ClassifyCompound splits a potentially multi-intent utterance and
// classifies each segment independently, in order. A low-confidence result
// on one segment never prevents processing of the rest.
func (e *Engine) ClassifyCompound(text string) []*Classification {
	segments := e.splitter.Split(text)

	results := make([]*Classification, 0, len(segments))
	for _, segment := range segments {
		results = append(results, e.Classify(segment))
	}

	return results
}

// classifySegment runs the pipeline for one normalized utterance
func (e *Engine) classifySegment(utterance Utterance) *Classification {
	// Contextual follow-ups inherit the previous command instead of being
	// classified independently
	if category, params, ok := e.resolver.Resolve(utterance.Normalized); ok {
		result := &Classification{
			Utterance:  utterance,
			Category:   category,
			Confidence: 0.9,
			Method:     MethodContext,
			Parameters: params,
		}
		e.mergeExtracted(result)
		return result
	}

	ruleMatch := e.rules.Match(utterance.Normalized)
	modelCategory, modelConfidence := e.classifier.Predict(utterance.Normalized)

	category, confidence, method := e.arbiter.Decide(ruleMatch, modelCategory, modelConfidence)

	result := &Classification{
		Utterance:  utterance,
		Category:   category,
		Confidence: confidence,
		Method:     method,
		Parameters: e.params.Extract(utterance.Normalized),
	}

	e.resolver.Observe(result)

	return result
}

// mergeExtracted adds extractor slots the context resolution did not
// already fill
func (e *Engine) mergeExtracted(result *Classification) {
	for slot, value := range e.params.Extract(result.Utterance.Normalized) {
		if _, ok := result.Parameters[slot]; !ok {
			result.Parameters[slot] = value
		}
	}
}
