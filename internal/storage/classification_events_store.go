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
	"database/sql"
	"fmt"
	"time"

	"github.com/voxdesk/voxdesk-hub/internal/events"
)

// ClassificationEventsStore handles database operations for the
// classification event log
type ClassificationEventsStore struct {
	db *Database
}

// NewClassificationEventsStore creates a new events store
func NewClassificationEventsStore(db *Database) *ClassificationEventsStore {
	return &ClassificationEventsStore{db: db}
}

// Insert stores a new classification event
func (s *ClassificationEventsStore) Insert(event *events.ClassificationEvent) error {
	if err := event.IsValid(); err != nil {
		return fmt.Errorf("invalid classification event: %w", err)
	}

	parametersJSON, err := event.ParametersJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize parameters: %w", err)
	}

	query := `
		INSERT INTO classification_events (
			uuid, session_id, timestamp,
			raw_text, normalized_text,
			category, method, confidence, parameters,
			processing_time_ms, success, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.DB().Exec(query,
		event.UUID, event.SessionID, event.Timestamp,
		event.RawText, event.NormalizedText,
		event.Category, event.Method, event.Confidence, parametersJSON,
		event.ProcessingTime, event.Success, event.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("failed to insert classification event: %w", err)
	}

	return nil
}

// GetByUUID retrieves a classification event by its UUID
func (s *ClassificationEventsStore) GetByUUID(uuid string) (*events.ClassificationEvent, error) {
	query := `
		SELECT uuid, session_id, timestamp,
			   raw_text, normalized_text,
			   category, method, confidence, parameters,
			   processing_time_ms, success, error_message
		FROM classification_events
		WHERE uuid = ?`

	row := s.db.DB().QueryRow(query, uuid)
	return s.scanEvent(row)
}

// EventListOptions defines filtering and pagination options
type EventListOptions struct {
	// Filtering
	SessionID string
	Category  string
	Method    string
	StartTime *time.Time
	EndTime   *time.Time

	// Pagination
	Limit  int
	Offset int
}

// List retrieves classification events with filtering and pagination,
// newest first
func (s *ClassificationEventsStore) List(options EventListOptions) ([]*events.ClassificationEvent, error) {
	query, args := s.buildListQuery(options)

	rows, err := s.db.DB().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classification events: %w", err)
	}
	defer rows.Close()

	var eventsList []*events.ClassificationEvent
	for rows.Next() {
		event, err := s.scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan classification event: %w", err)
		}
		eventsList = append(eventsList, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classification events: %w", err)
	}

	return eventsList, nil
}

// Count returns the number of events matching the filter
func (s *ClassificationEventsStore) Count(options EventListOptions) (int64, error) {
	options.Limit = 0
	options.Offset = 0
	query, args := s.buildListQuery(options)

	countQuery := "SELECT COUNT(*) FROM (" + query + ") as filtered"

	var count int64
	err := s.db.DB().QueryRow(countQuery, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count classification events: %w", err)
	}

	return count, nil
}

// buildListQuery constructs the SQL query based on EventListOptions
func (s *ClassificationEventsStore) buildListQuery(options EventListOptions) (string, []interface{}) {
	query := `
		SELECT uuid, session_id, timestamp,
			   raw_text, normalized_text,
			   category, method, confidence, parameters,
			   processing_time_ms, success, error_message
		FROM classification_events WHERE 1=1`

	var args []interface{}

	if options.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, options.SessionID)
	}

	if options.Category != "" {
		query += " AND category = ?"
		args = append(args, options.Category)
	}

	if options.Method != "" {
		query += " AND method = ?"
		args = append(args, options.Method)
	}

	if options.StartTime != nil {
		query += " AND timestamp >= ?"
		args = append(args, options.StartTime)
	}

	if options.EndTime != nil {
		query += " AND timestamp <= ?"
		args = append(args, options.EndTime)
	}

	query += " ORDER BY timestamp DESC"

	if options.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, options.Limit)

		if options.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, options.Offset)
		}
	}

	return query, args
}

// scanEvent scans a database row into a ClassificationEvent struct
func (s *ClassificationEventsStore) scanEvent(scanner interface{}) (*events.ClassificationEvent, error) {
	var event events.ClassificationEvent
	var parametersJSON string
	var errorMessage sql.NullString

	var row interface {
		Scan(dest ...interface{}) error
	}

	switch v := scanner.(type) {
	case *sql.Row:
		row = v
	case *sql.Rows:
		row = v
	default:
		return nil, fmt.Errorf("unsupported scanner type")
	}

	err := row.Scan(
		&event.UUID, &event.SessionID, &event.Timestamp,
		&event.RawText, &event.NormalizedText,
		&event.Category, &event.Method, &event.Confidence, &parametersJSON,
		&event.ProcessingTime, &event.Success, &errorMessage,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("classification event not found")
		}
		return nil, err
	}

	event.ErrorMessage = errorMessage.String

	if err := event.SetParametersFromJSON(parametersJSON); err != nil {
		return nil, fmt.Errorf("failed to parse parameters JSON: %w", err)
	}

	return &event, nil
}
