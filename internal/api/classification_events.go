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

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxdesk/voxdesk-hub/internal/events"
	"github.com/voxdesk/voxdesk-hub/internal/logging"
	"github.com/voxdesk/voxdesk-hub/internal/storage"
)

// ClassificationEventsHandler handles HTTP requests for the event log
type ClassificationEventsHandler struct {
	store *storage.ClassificationEventsStore
}

// NewClassificationEventsHandler creates a new events handler
func NewClassificationEventsHandler(store *storage.ClassificationEventsStore) *ClassificationEventsHandler {
	return &ClassificationEventsHandler{store: store}
}

// ListEventsResponse represents the response for listing events
type ListEventsResponse struct {
	Events     []*events.ClassificationEvent `json:"events"`
	Total      int64                         `json:"total"`
	Page       int                           `json:"page"`
	PageSize   int                           `json:"page_size"`
	TotalPages int                           `json:"total_pages"`
}

// HandleEvents handles GET /api/events
func (h *ClassificationEventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.listEvents(w, r)
}

// HandleEventByID handles GET /api/events/{uuid}
func (h *ClassificationEventsHandler) HandleEventByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uuid := strings.TrimPrefix(r.URL.Path, "/api/events/")
	if uuid == "" || strings.Contains(uuid, "/") {
		http.Error(w, "Event ID is required", http.StatusBadRequest)
		return
	}

	h.getEventByID(w, uuid)
}

// listEvents handles GET /api/events
func (h *ClassificationEventsHandler) listEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Pagination
	page := parseIntParam(query.Get("page"), 1)
	pageSize := parseIntParam(query.Get("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100 // Limit maximum page size
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	// Filtering
	options := storage.EventListOptions{
		SessionID: query.Get("session_id"),
		Category:  query.Get("category"),
		Method:    query.Get("method"),
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	}

	// Parse time filters
	if startTimeStr := query.Get("start_time"); startTimeStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			options.StartTime = &startTime
		}
	}
	if endTimeStr := query.Get("end_time"); endTimeStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			options.EndTime = &endTime
		}
	}

	// Get total count for pagination
	total, err := h.store.Count(options)
	if err != nil {
		logging.LogError(err, "Failed to count classification events")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Get events
	eventsList, err := h.store.List(options)
	if err != nil {
		logging.LogError(err, "Failed to list classification events")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	response := ListEventsResponse{
		Events:     eventsList,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(err, "Failed to write events response")
	}
}

// getEventByID handles GET /api/events/{uuid}
func (h *ClassificationEventsHandler) getEventByID(w http.ResponseWriter, uuid string) {
	event, err := h.store.GetByUUID(uuid)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "Classification event not found", http.StatusNotFound)
			return
		}
		logging.LogError(err, "Failed to get classification event",
			zap.String("uuid", uuid),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(event); err != nil {
		logging.LogError(err, "Failed to write event response")
	}
}

// parseIntParam parses integer parameter with default value
func parseIntParam(param string, defaultValue int) int {
	if param == "" {
		return defaultValue
	}

	if value, err := strconv.Atoi(param); err == nil {
		return value
	}

	return defaultValue
}
