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
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/voxdesk/voxdesk-hub/internal/intent"
	"github.com/voxdesk/voxdesk-hub/internal/logging"
)

// retrainer serializes model retraining. Only one retrain runs at a time;
// triggering a new one cancels the in-flight run, and a superseded run
// never swaps its snapshot in. Classification keeps serving the previous
// snapshot throughout.
type retrainer struct {
	store *Store

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newRetrainer(store *Store) *retrainer {
	return &retrainer{store: store}
}

// trigger starts an asynchronous retrain, superseding any in flight
func (r *retrainer) trigger() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	dataset := r.store.Dataset()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		snapshot, err := intent.Train(dataset)
		if err != nil {
			logging.LogWarn("Background retrain skipped", zap.Error(err))
			return
		}

		// A newer trigger owns the classifier now
		if ctx.Err() != nil {
			return
		}

		r.store.classifier.Swap(snapshot)
		logging.LogRetrain("background", zap.Int("examples", snapshot.ExampleCount))
	}()
}

// retrain fits and swaps synchronously
func (r *retrainer) retrain(dataset map[intent.Category][]string) error {
	snapshot, err := intent.Train(dataset)
	if err != nil {
		return fmt.Errorf("failed to train model: %w", err)
	}

	r.store.classifier.Swap(snapshot)
	logging.LogRetrain("manual", zap.Int("examples", snapshot.ExampleCount))

	return nil
}

// stop cancels any in-flight retrain and waits for it to exit
func (r *retrainer) stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

// Scheduler periodically retrains the model so examples trickling in below
// the batch threshold still reach it.
type Scheduler struct {
	store *Store
	cron  *cron.Cron
}

// NewScheduler creates a retrain scheduler. The schedule uses cron syntax,
// e.g. "@every 10m".
func NewScheduler(store *Store, schedule string) (*Scheduler, error) {
	c := cron.New()

	lastCount := store.ExampleCount()
	var mu sync.Mutex

	_, err := c.AddFunc(schedule, func() {
		mu.Lock()
		current := store.ExampleCount()
		changed := current != lastCount
		lastCount = current
		mu.Unlock()

		if changed {
			logging.LogRetrain("scheduled", zap.Int("examples", current))
			store.TriggerRetrain()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid retrain schedule %q: %w", schedule, err)
	}

	return &Scheduler{store: store, cron: c}, nil
}

// Start begins the periodic sweep
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the sweep and waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
