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

package learning

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/voxdesk/voxdesk-hub/internal/intent"
	"github.com/voxdesk/voxdesk-hub/internal/logging"
	"github.com/voxdesk/voxdesk-hub/internal/security"
	"github.com/voxdesk/voxdesk-hub/internal/storage"
)

// Store owns the training dataset and the pending review queue. Confirmed
// examples are appended (deduplicated, single writer), persisted
// best-effort, and batched into asynchronous retrains of the classifier.
// Persistence failures never block command routing; the in-memory model
// stays authoritative.
type Store struct {
	mu      sync.Mutex
	dataset map[intent.Category][]string
	seen    map[intent.Category]map[string]bool

	classifier *intent.Classifier
	normalizer *intent.Normalizer
	persist    *storage.DatasetStore // nil disables persistence

	batchSize      int
	pendingUpdates int

	retrainer *retrainer
}

// NewStore creates a learning store feeding the given classifier.
// persist may be nil, in which case the dataset is memory-only.
func NewStore(classifier *intent.Classifier, persist *storage.DatasetStore, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = 5
	}

	s := &Store{
		dataset:    make(map[intent.Category][]string),
		seen:       make(map[intent.Category]map[string]bool),
		classifier: classifier,
		normalizer: intent.NewNormalizer(),
		persist:    persist,
		batchSize:  batchSize,
	}
	s.retrainer = newRetrainer(s)

	return s
}

// DefaultDataset returns the seed examples every fresh installation starts
// with, covering each built-in category.
func DefaultDataset() map[intent.Category][]string {
	return map[intent.Category][]string{
		intent.CategoryScreenshot: {
			"take a screenshot", "capture screen", "screenshot please",
			"take screenshot", "grab screenshot", "save screen",
		},
		intent.CategoryYouTubeSearch: {
			"search youtube for", "find videos of", "search for videos",
			"look up on youtube", "youtube search",
		},
		intent.CategoryYouTubePlay: {
			"play on youtube", "play video", "start playing",
			"youtube play", "watch video",
		},
		intent.CategorySystemControl: {
			"open chrome", "launch notepad", "start calculator",
			"minimize window", "maximize window",
		},
		intent.CategoryMediaControl: {
			"pause video", "play music", "stop playback",
			"next track", "volume up",
		},
		intent.CategorySystemInfo: {
			"check cpu usage", "show memory", "battery status",
			"system information", "show temperature",
		},
		intent.CategoryWebSearch: {
			"search for", "look up", "find information about",
			"google", "search web for",
		},
	}
}

// Load initializes the in-memory dataset from the seed examples plus
// whatever persistence holds, then fits the initial model synchronously.
func (s *Store) Load() error {
	s.mu.Lock()

	for category, examples := range DefaultDataset() {
		for _, text := range examples {
			s.addLocked(category, s.normalizer.Normalize(text))
		}
	}

	if s.persist != nil {
		stored, err := s.persist.LoadDataset()
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to load persisted dataset: %w", err)
		}
		for category, examples := range stored {
			for _, text := range examples {
				s.addLocked(category, text)
			}
		}
	}

	dataset := s.datasetCopyLocked()
	s.mu.Unlock()

	snapshot, err := intent.Train(dataset)
	if err != nil {
		// A degenerate dataset is not fatal; the classifier simply
		// reports unknown until enough examples arrive.
		logging.LogWarn("Initial model training skipped", zap.Error(err))
		return nil
	}

	s.classifier.Swap(snapshot)
	logging.LogRetrain("initial", zap.Int("examples", snapshot.ExampleCount))

	return nil
}

// AddExample appends a confirmed (text, category) pair to the trusted
// dataset. It reports whether the pair was new. Duplicate pairs leave the
// dataset unchanged.
func (s *Store) AddExample(text string, category intent.Category) bool {
	normalized := s.normalizer.Normalize(text)
	if normalized == "" {
		return false
	}

	s.mu.Lock()
	added := s.addLocked(category, normalized)
	if added {
		s.pendingUpdates++
	}
	shouldRetrain := s.pendingUpdates >= s.batchSize
	if shouldRetrain {
		s.pendingUpdates = 0
	}
	s.mu.Unlock()

	if !added {
		return false
	}

	logging.LogDatasetOperation("add_example", string(category),
		zap.String("text", security.SanitizeLogInput(normalized)))

	if s.persist != nil {
		if _, err := s.persist.InsertExample(category, normalized); err != nil {
			// Best-effort: routing must not depend on storage health
			logging.LogError(err, "Failed to persist training example",
				zap.String("category", string(category)))
		}
	}

	if shouldRetrain {
		s.retrainer.trigger()
	}

	return true
}

// AddPending queues a command for human review. Low-confidence and
// user-corrected commands must not silently enter the trusted dataset.
func (s *Store) AddPending(text string, category intent.Category, confidence float64) {
	normalized := s.normalizer.Normalize(text)
	if normalized == "" || s.persist == nil {
		return
	}

	if err := s.persist.InsertPending(normalized, category, confidence); err != nil {
		logging.LogError(err, "Failed to queue command for review",
			zap.String("category", string(category)))
		return
	}

	logging.LogDatasetOperation("queue_review", string(category),
		zap.String("text", security.SanitizeLogInput(normalized)),
		zap.Float64("confidence", confidence))
}

// ListPending returns queued reviews, oldest first
func (s *Store) ListPending(limit int) ([]storage.PendingReview, error) {
	if s.persist == nil {
		return nil, nil
	}
	return s.persist.ListPending(limit)
}

// Approve confirms a pending review into the trusted dataset, optionally
// under a corrected category
func (s *Store) Approve(id int64, category intent.Category) error {
	if s.persist == nil {
		return fmt.Errorf("no persistence configured")
	}

	review, err := s.persist.GetPending(id)
	if err != nil {
		return err
	}

	if category == "" {
		category = intent.Category(review.SuggestedCategory)
	}

	s.AddExample(review.Text, category)

	return s.persist.DeletePending(id)
}

// Reject drops a pending review without learning from it
func (s *Store) Reject(id int64) error {
	if s.persist == nil {
		return fmt.Errorf("no persistence configured")
	}
	return s.persist.DeletePending(id)
}

// Suggest returns up to limit dataset examples matching a partial command,
// prefix matches first
func (s *Store) Suggest(partial string, limit int) []string {
	normalized := s.normalizer.Normalize(partial)
	if normalized == "" {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var prefixed, contained []string
	for _, category := range s.sortedCategoriesLocked() {
		for _, text := range s.dataset[category] {
			switch {
			case strings.HasPrefix(text, normalized):
				prefixed = append(prefixed, text)
			case strings.Contains(text, normalized):
				contained = append(contained, text)
			}
		}
	}

	suggestions := append(prefixed, contained...)
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	return suggestions
}

// Dataset returns a copy of the in-memory dataset
func (s *Store) Dataset() map[intent.Category][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.datasetCopyLocked()
}

// ExampleCount returns the total number of stored examples
func (s *Store) ExampleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, examples := range s.dataset {
		total += len(examples)
	}
	return total
}

// Retrain fits a new snapshot synchronously and swaps it in
func (s *Store) Retrain() error {
	return s.retrainer.retrain(s.Dataset())
}

// TriggerRetrain requests an asynchronous retrain. A newer request
// supersedes one already in flight.
func (s *Store) TriggerRetrain() {
	s.retrainer.trigger()
}

// Close stops background retraining
func (s *Store) Close() {
	s.retrainer.stop()
}

// addLocked appends a normalized example, preserving the deduplication
// invariant. Caller holds s.mu.
func (s *Store) addLocked(category intent.Category, normalized string) bool {
	if normalized == "" {
		return false
	}

	if s.seen[category] == nil {
		s.seen[category] = make(map[string]bool)
	}
	if s.seen[category][normalized] {
		return false
	}

	s.seen[category][normalized] = true
	s.dataset[category] = append(s.dataset[category], normalized)
	return true
}

func (s *Store) datasetCopyLocked() map[intent.Category][]string {
	copied := make(map[intent.Category][]string, len(s.dataset))
	for category, examples := range s.dataset {
		copied[category] = append([]string(nil), examples...)
	}
	return copied
}

func (s *Store) sortedCategoriesLocked() []intent.Category {
	categories := make([]intent.Category, 0, len(s.dataset))
	for category := range s.dataset {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories
}
