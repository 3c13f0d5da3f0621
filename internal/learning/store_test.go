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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxdesk/voxdesk-hub/internal/intent"
	"github.com/voxdesk/voxdesk-hub/internal/storage"
)

func newMemoryStore(t *testing.T) *Store {
	t.Helper()

	s := NewStore(intent.NewClassifier(), nil, 5)
	t.Cleanup(s.Close)
	return s
}

func newPersistentStore(t *testing.T, batchSize int) (*Store, *storage.Database) {
	t.Helper()

	db, err := storage.NewDatabase(storage.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewStore(intent.NewClassifier(), storage.NewDatasetStore(db), batchSize)
	t.Cleanup(s.Close)
	return s, db
}

func TestLoadSeedsDefaultsAndTrains(t *testing.T) {
	s := newMemoryStore(t)

	require.NoError(t, s.Load())

	assert.True(t, s.classifier.Ready(), "initial model should be fitted from seed examples")
	assert.Greater(t, s.ExampleCount(), 0)

	category, _ := s.classifier.Predict("take a screenshot")
	assert.Equal(t, intent.CategoryScreenshot, category)
}

func TestAddExampleDeduplicates(t *testing.T) {
	s := newMemoryStore(t)

	assert.True(t, s.AddExample("open spotify", intent.CategorySystemControl))
	before := s.ExampleCount()

	// Same pair again, including variants that normalize to the same text
	assert.False(t, s.AddExample("open spotify", intent.CategorySystemControl))
	assert.False(t, s.AddExample("  Open   Spotify  ", intent.CategorySystemControl))
	assert.Equal(t, before, s.ExampleCount())
}

func TestAddExampleSameTextDifferentCategory(t *testing.T) {
	s := newMemoryStore(t)

	assert.True(t, s.AddExample("play something", intent.CategoryMediaControl))
	assert.True(t, s.AddExample("play something", intent.CategoryYouTubePlay))
}

func TestAddExampleEmptyText(t *testing.T) {
	s := newMemoryStore(t)

	assert.False(t, s.AddExample("", intent.CategoryScreenshot))
	assert.False(t, s.AddExample("   ", intent.CategoryScreenshot))
	assert.Equal(t, 0, s.ExampleCount())
}

func TestAddExamplePersists(t *testing.T) {
	s, db := newPersistentStore(t, 100)

	require.True(t, s.AddExample("open spotify", intent.CategorySystemControl))

	count, err := storage.NewDatasetStore(db).CountExamples()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLoadMergesPersistedExamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	db, err := storage.NewDatabase(storage.DatabaseConfig{Path: path})
	require.NoError(t, err)

	first := NewStore(intent.NewClassifier(), storage.NewDatasetStore(db), 100)
	require.NoError(t, first.Load())
	require.True(t, first.AddExample("open spotify", intent.CategorySystemControl))
	first.Close()
	require.NoError(t, db.Close())

	// A fresh store over the same database sees the confirmed example
	db, err = storage.NewDatabase(storage.DatabaseConfig{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	second := NewStore(intent.NewClassifier(), storage.NewDatasetStore(db), 100)
	t.Cleanup(second.Close)
	require.NoError(t, second.Load())

	dataset := second.Dataset()
	assert.Contains(t, dataset[intent.CategorySystemControl], "open spotify")
}

func TestBatchTriggersRetrain(t *testing.T) {
	s := newMemoryStore(t)
	require.NoError(t, s.Load())

	trainedAt := s.classifier.Snapshot().TrainedAt

	s.batchSize = 2
	require.True(t, s.AddExample("frobnicate the widget", intent.CategorySystemControl))
	require.True(t, s.AddExample("defrobnicate the widget", intent.CategorySystemControl))

	// The retrain runs asynchronously; poll for the snapshot swap
	deadline := time.After(5 * time.Second)
	for {
		snap := s.classifier.Snapshot()
		if snap != nil && snap.TrainedAt.After(trainedAt) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("retrain did not complete in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	category, _ := s.classifier.Predict("frobnicate the widget")
	assert.Equal(t, intent.CategorySystemControl, category)
}

func TestRetrainSynchronous(t *testing.T) {
	s := newMemoryStore(t)
	require.NoError(t, s.Load())

	require.True(t, s.AddExample("frobnicate the widget", intent.CategorySystemControl))
	require.NoError(t, s.Retrain())

	category, _ := s.classifier.Predict("frobnicate the widget")
	assert.Equal(t, intent.CategorySystemControl, category)
}

func TestTriggerRetrainSupersession(t *testing.T) {
	s := newMemoryStore(t)
	require.NoError(t, s.Load())

	// Rapid-fire triggers: later requests supersede earlier in-flight runs.
	// After Close (which waits for the in-flight run) the classifier must
	// serve a snapshot covering the full dataset.
	for i := 0; i < 20; i++ {
		s.TriggerRetrain()
	}
	s.retrainer.stop()

	snap := s.classifier.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, s.ExampleCount(), snap.ExampleCount)
}

func TestSuggest(t *testing.T) {
	s := newMemoryStore(t)
	require.NoError(t, s.Load())

	suggestions := s.Suggest("take a", 5)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "take a screenshot", suggestions[0], "prefix matches come first")

	assert.Empty(t, s.Suggest("", 5))
	assert.Empty(t, s.Suggest("zzzzz", 5))
	assert.LessOrEqual(t, len(s.Suggest("s", 3)), 3)
}

func TestPendingReviewFlow(t *testing.T) {
	s, _ := newPersistentStore(t, 100)
	require.NoError(t, s.Load())

	s.AddPending("play some jazz", intent.CategoryMediaControl, 0.4)

	pending, err := s.ListPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "play some jazz", pending[0].Text)
	assert.Equal(t, string(intent.CategoryMediaControl), pending[0].SuggestedCategory)

	// Approval moves the command into the trusted dataset
	before := s.ExampleCount()
	require.NoError(t, s.Approve(pending[0].ID, ""))
	assert.Equal(t, before+1, s.ExampleCount())
	assert.Contains(t, s.Dataset()[intent.CategoryMediaControl], "play some jazz")

	pending, err = s.ListPending(10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApproveWithCorrection(t *testing.T) {
	s, _ := newPersistentStore(t, 100)
	require.NoError(t, s.Load())

	s.AddPending("play some jazz", intent.CategoryMediaControl, 0.4)

	pending, err := s.ListPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Reviewer corrects the suggested category
	require.NoError(t, s.Approve(pending[0].ID, intent.CategoryYouTubePlay))
	assert.Contains(t, s.Dataset()[intent.CategoryYouTubePlay], "play some jazz")
	assert.NotContains(t, s.Dataset()[intent.CategoryMediaControl], "play some jazz")
}

func TestReject(t *testing.T) {
	s, _ := newPersistentStore(t, 100)
	require.NoError(t, s.Load())

	s.AddPending("play some jazz", intent.CategoryMediaControl, 0.4)

	pending, err := s.ListPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	before := s.ExampleCount()
	require.NoError(t, s.Reject(pending[0].ID))
	assert.Equal(t, before, s.ExampleCount(), "rejected commands are not learned")

	pending, err = s.ListPending(10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSchedulerValidatesSpec(t *testing.T) {
	s := newMemoryStore(t)

	_, err := NewScheduler(s, "not a cron spec")
	assert.Error(t, err)

	sched, err := NewScheduler(s, "@every 10m")
	require.NoError(t, err)
	sched.Start()
	sched.Stop()
}
