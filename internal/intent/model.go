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
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// Snapshot is a fitted model over the training dataset at a point in time.
// Snapshots are immutable; retraining builds a new one and swaps the pointer,
// so in-flight predictions never observe a half-trained model.
type Snapshot struct {
	classes       []Category // sorted for deterministic iteration
	vocab         map[string]int
	classLogPrior []float64
	tokenLogProb  [][]float64 // [class][token]
	ExampleCount  int
	TrainedAt     time.Time
}

// Classifier predicts a category and probability-like confidence for
// normalized text. It is a multinomial naive bayes over unigram+bigram
// counts with Laplace smoothing.
type Classifier struct {
	snapshot atomic.Pointer[Snapshot]
}

// NewClassifier creates an untrained classifier. Until a snapshot is
// swapped in, Predict reports unknown at confidence zero.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Train fits a snapshot over the dataset. A degenerate dataset (fewer than
// two categories, or no examples) is an error; the caller keeps serving the
// previous snapshot.
func Train(dataset map[Category][]string) (*Snapshot, error) {
	classes := make([]Category, 0, len(dataset))
	for category, examples := range dataset {
		if len(examples) > 0 {
			classes = append(classes, category)
		}
	}

	if len(classes) < 2 {
		return nil, fmt.Errorf("degenerate dataset: need at least 2 categories with examples, have %d", len(classes))
	}

	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	// Build vocabulary over all examples
	vocab := make(map[string]int)
	for _, category := range classes {
		for _, text := range dataset[category] {
			for _, token := range featurize(text) {
				if _, ok := vocab[token]; !ok {
					vocab[token] = len(vocab)
				}
			}
		}
	}

	if len(vocab) == 0 {
		return nil, fmt.Errorf("degenerate dataset: no tokens in any example")
	}

	snap := &Snapshot{
		classes:       classes,
		vocab:         vocab,
		classLogPrior: make([]float64, len(classes)),
		tokenLogProb:  make([][]float64, len(classes)),
		TrainedAt:     time.Now(),
	}

	total := 0
	for _, category := range classes {
		total += len(dataset[category])
	}
	snap.ExampleCount = total

	for ci, category := range classes {
		examples := dataset[category]
		snap.classLogPrior[ci] = math.Log(float64(len(examples)) / float64(total))

		counts := make([]int, len(vocab))
		tokenTotal := 0
		for _, text := range examples {
			for _, token := range featurize(text) {
				counts[vocab[token]]++
				tokenTotal++
			}
		}

		// Laplace smoothing
		logProbs := make([]float64, len(vocab))
		denom := math.Log(float64(tokenTotal + len(vocab)))
		for ti := range counts {
			logProbs[ti] = math.Log(float64(counts[ti]+1)) - denom
		}
		snap.tokenLogProb[ci] = logProbs
	}

	return snap, nil
}

// Swap atomically replaces the serving snapshot
func (c *Classifier) Swap(snap *Snapshot) {
	c.snapshot.Store(snap)
}

// Snapshot returns the currently serving snapshot, or nil if untrained
func (c *Classifier) Snapshot() *Snapshot {
	return c.snapshot.Load()
}

// Ready reports whether a fitted snapshot is being served
func (c *Classifier) Ready() bool {
	return c.snapshot.Load() != nil
}

// Predict returns the most likely category with a confidence in [0,1].
// It never fails: an untrained classifier reports unknown at zero.
func (c *Classifier) Predict(normalized string) (Category, float64) {
	snap := c.snapshot.Load()
	if snap == nil || normalized == "" {
		return CategoryUnknown, 0.0
	}
	return snap.Predict(normalized)
}

// Predict scores normalized text against this snapshot
func (s *Snapshot) Predict(normalized string) (Category, float64) {
	scores := make([]float64, len(s.classes))
	copy(scores, s.classLogPrior)

	// Tokens outside the training vocabulary carry no signal and are
	// dropped, matching how the vectorizer handled unseen n-grams.
	for _, token := range featurize(normalized) {
		ti, ok := s.vocab[token]
		if !ok {
			continue
		}
		for ci := range s.classes {
			scores[ci] += s.tokenLogProb[ci][ti]
		}
	}

	best := 0
	for ci := range scores {
		if scores[ci] > scores[best] {
			best = ci
		}
	}

	return s.classes[best], softmaxMax(scores, best)
}

// Classes returns the categories this snapshot can predict
func (s *Snapshot) Classes() []Category {
	out := make([]Category, len(s.classes))
	copy(out, s.classes)
	return out
}

// softmaxMax computes the softmax probability of the winning score using
// the log-sum-exp trick for numerical stability
func softmaxMax(scores []float64, best int) float64 {
	maxScore := scores[best]
	var sum float64
	for _, score := range scores {
		sum += math.Exp(score - maxScore)
	}
	return 1.0 / sum
}

// featurize splits normalized text into unigram and bigram tokens
func featurize(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(words)*2-1)
	tokens = append(tokens, words...)
	for i := 0; i+1 < len(words); i++ {
		tokens = append(tokens, words[i]+" "+words[i+1])
	}

	return tokens
}
