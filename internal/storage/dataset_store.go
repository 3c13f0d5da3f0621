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

package storage

import (
	"fmt"

	"github.com/voxdesk/voxdesk-hub/internal/intent"
)

// DatasetStore handles persistence for the training dataset and the
// pending review queue
type DatasetStore struct {
	db *Database
}

// PendingReview is one queued command awaiting confirmation
type PendingReview struct {
	ID                int64   `json:"id"`
	Text              string  `json:"text"`
	SuggestedCategory string  `json:"suggested_category"`
	Confidence        float64 `json:"confidence"`
}

// NewDatasetStore creates a new dataset store
func NewDatasetStore(db *Database) *DatasetStore {
	return &DatasetStore{db: db}
}

// InsertExample persists one training example. Inserting the same
// (category, text) pair twice is a no-op; the returned bool reports whether
// a row was actually added.
func (s *DatasetStore) InsertExample(category intent.Category, text string) (bool, error) {
	result, err := s.db.DB().Exec(
		"INSERT OR IGNORE INTO training_examples (category, text) VALUES (?, ?)",
		string(category), text,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert training example: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// LoadDataset reads the full dataset into the in-memory shape the
// classifier trains on, ordered by insertion
func (s *DatasetStore) LoadDataset() (map[intent.Category][]string, error) {
	rows, err := s.db.DB().Query(
		"SELECT category, text FROM training_examples ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query training examples: %w", err)
	}
	defer rows.Close()

	dataset := make(map[intent.Category][]string)
	for rows.Next() {
		var category, text string
		if err := rows.Scan(&category, &text); err != nil {
			return nil, fmt.Errorf("failed to scan training example: %w", err)
		}
		dataset[intent.Category(category)] = append(dataset[intent.Category(category)], text)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating training examples: %w", err)
	}

	return dataset, nil
}

// CountExamples returns the number of stored training examples
func (s *DatasetStore) CountExamples() (int64, error) {
	var count int64
	err := s.db.DB().QueryRow("SELECT COUNT(*) FROM training_examples").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count training examples: %w", err)
	}
	return count, nil
}

// InsertPending queues a command for review
func (s *DatasetStore) InsertPending(text string, category intent.Category, confidence float64) error {
	_, err := s.db.DB().Exec(
		"INSERT OR IGNORE INTO pending_reviews (text, suggested_category, confidence) VALUES (?, ?, ?)",
		text, string(category), confidence,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pending review: %w", err)
	}

	return nil
}

// ListPending returns queued reviews, oldest first
func (s *DatasetStore) ListPending(limit int) ([]PendingReview, error) {
	query := "SELECT id, text, suggested_category, confidence FROM pending_reviews ORDER BY id"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.DB().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending reviews: %w", err)
	}
	defer rows.Close()

	var pending []PendingReview
	for rows.Next() {
		var review PendingReview
		if err := rows.Scan(&review.ID, &review.Text, &review.SuggestedCategory, &review.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan pending review: %w", err)
		}
		pending = append(pending, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending reviews: %w", err)
	}

	return pending, nil
}

// GetPending retrieves one queued review by id
func (s *DatasetStore) GetPending(id int64) (*PendingReview, error) {
	var review PendingReview
	err := s.db.DB().QueryRow(
		"SELECT id, text, suggested_category, confidence FROM pending_reviews WHERE id = ?", id,
	).Scan(&review.ID, &review.Text, &review.SuggestedCategory, &review.Confidence)
	if err != nil {
		return nil, fmt.Errorf("pending review not found: %w", err)
	}

	return &review, nil
}

// DeletePending removes a queued review, after approval or rejection
func (s *DatasetStore) DeletePending(id int64) error {
	result, err := s.db.DB().Exec("DELETE FROM pending_reviews WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete pending review: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("pending review not found: %d", id)
	}

	return nil
}
