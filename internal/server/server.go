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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxdesk/voxdesk-hub/internal/api"
	"github.com/voxdesk/voxdesk-hub/internal/capability"
	"github.com/voxdesk/voxdesk-hub/internal/config"
	"github.com/voxdesk/voxdesk-hub/internal/events"
	"github.com/voxdesk/voxdesk-hub/internal/intent"
	"github.com/voxdesk/voxdesk-hub/internal/learning"
	"github.com/voxdesk/voxdesk-hub/internal/logging"
	"github.com/voxdesk/voxdesk-hub/internal/messaging"
	"github.com/voxdesk/voxdesk-hub/internal/storage"
)

// Server wires the classification engine, learning store, event log and
// messaging behind the HTTP API
type Server struct {
	cfg    *config.Config
	mux    *http.ServeMux
	server *http.Server

	engine    *intent.Engine
	registry  *capability.Registry
	learner   *learning.Store
	scheduler *learning.Scheduler

	db            *storage.Database
	eventsStore   *storage.ClassificationEventsStore
	eventsHandler *api.ClassificationEventsHandler

	nats      *messaging.NATSService
	sessionID string

	// Server context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a fully wired server. It fails loud on configuration errors:
// unparseable rules, an invalid category manifest, or a rule routing to an
// unregistered category.
func New(cfg *config.Config) (*Server, error) {
	rules := intent.DefaultRules()
	if cfg.Engine.RulesPath != "" {
		loaded, err := intent.LoadRules(cfg.Engine.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}
		rules = loaded
	}

	registry, err := capability.LoadRegistry(cfg.Engine.CategoriesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load capability registry: %w", err)
	}

	engine, err := intent.NewEngine(intent.EngineOptions{
		Rules:                  rules,
		LowConfidenceThreshold: cfg.Engine.LowConfidenceThreshold,
		FallbackCategory:       intent.Category(cfg.Engine.FallbackCategory),
		FallbackConfidence:     cfg.Engine.FallbackConfidence,
		ContextStep:            cfg.Engine.ContextStep,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	// A rule routing to a category no handler serves is a configuration
	// error, caught here rather than per utterance
	if err := registry.Validate(engine.Rules()); err != nil {
		return nil, fmt.Errorf("capability registry validation failed: %w", err)
	}

	db, err := storage.NewDatabase(storage.DatabaseConfig{Path: cfg.Database.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	learner := learning.NewStore(engine.Classifier(), storage.NewDatasetStore(db), cfg.Learning.RetrainBatchSize)
	if err := learner.Load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load learning store: %w", err)
	}

	scheduler, err := learning.NewScheduler(learner, cfg.Learning.RetrainSchedule)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build retrain scheduler: %w", err)
	}

	eventsStore := storage.NewClassificationEventsStore(db)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:           cfg,
		mux:           http.NewServeMux(),
		engine:        engine,
		registry:      registry,
		learner:       learner,
		scheduler:     scheduler,
		db:            db,
		eventsStore:   eventsStore,
		eventsHandler: api.NewClassificationEventsHandler(eventsStore),
		nats:          messaging.NewNATSService(cfg.NATS.URL),
		sessionID:     uuid.NewString(),
		ctx:           ctx,
		cancel:        cancel,
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	engine.SetObserver(s.observeClassification)
	s.routes()

	return s, nil
}

// Engine exposes the classification engine, used by tests and the CLI
func (s *Server) Engine() *intent.Engine {
	return s.engine
}

// Start starts the server and all background services. NATS is optional:
// the hub keeps classifying with the broker down, handlers just don't
// receive routed intents until it reconnects.
func (s *Server) Start() error {
	if err := s.nats.Connect(); err != nil {
		logging.LogWarn("NATS unavailable, intent routing disabled until reconnect",
			zap.Error(err))
	} else {
		if _, err := s.nats.SubscribeToConfirmations(s.handleConfirmation); err != nil {
			logging.LogError(err, "Failed to subscribe to confirmations")
		}
	}

	s.scheduler.Start()

	logging.Sugar.Infow("🚀 VoxDesk Hub starting",
		"http_addr", s.server.Addr,
		"categories", len(s.registry.Categories()),
		"examples", s.learner.ExampleCount())

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	logging.Sugar.Infow("🛑 Shutting down VoxDesk Hub")

	s.cancel()
	s.scheduler.Stop()
	s.learner.Close()
	s.nats.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("database close failed: %w", err)
	}

	logging.Sugar.Infow("✅ VoxDesk Hub shut down successfully")
	return nil
}

// routes sets up HTTP routing
func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)

	s.mux.HandleFunc("/api/classify", s.handleClassify)
	s.mux.HandleFunc("/api/classify/compound", s.handleClassifyCompound)
	s.mux.HandleFunc("/api/categories", s.handleCategories)
	s.mux.HandleFunc("/api/learn", s.handleLearn)
	s.mux.HandleFunc("/api/review", s.handleReview)
	s.mux.HandleFunc("/api/suggest", s.handleSuggest)
	s.mux.HandleFunc("/api/events", s.eventsHandler.HandleEvents)
	s.mux.HandleFunc("/api/events/", s.eventsHandler.HandleEventByID)
}

// observeClassification runs after every classification: logs the event,
// routes the intent, and queues uncertain results for review. Everything
// here is best-effort; classification results were already returned.
func (s *Server) observeClassification(result *intent.Classification) {
	event := events.NewClassificationEvent(s.sessionID)
	event.FromClassification(result)

	if err := s.eventsStore.Insert(event); err != nil {
		logging.LogError(err, "Failed to persist classification event")
	}

	if s.nats.IsConnected() {
		if err := s.nats.PublishIntent(intentEventFrom(event, result)); err != nil {
			logging.LogError(err, "Failed to publish intent")
		}
	}

	if result.Method != intent.MethodRule && result.Confidence < s.cfg.Engine.ReviewThreshold {
		s.learner.AddPending(result.Utterance.Raw, result.Category, result.Confidence)
	}
}

// handleConfirmation feeds confirmed or corrected commands from the
// capability handlers back into the learning store
func (s *Server) handleConfirmation(event *messaging.ConfirmationEvent) {
	category := intent.Category(event.Category)
	if _, ok := s.registry.Lookup(category); !ok {
		logging.LogWarn("Ignoring confirmation for unregistered category",
			zap.String("category", event.Category))
		return
	}

	s.learner.AddExample(event.Text, category)
}

func intentEventFrom(event *events.ClassificationEvent, result *intent.Classification) *messaging.IntentEvent {
	parameters := make(map[string]int, len(result.Parameters))
	for slot, value := range result.Parameters {
		parameters[string(slot)] = value
	}

	return &messaging.IntentEvent{
		EventID:    event.UUID,
		SessionID:  event.SessionID,
		RawText:    result.Utterance.Raw,
		Category:   string(result.Category),
		Method:     string(result.Method),
		Confidence: result.Confidence,
		Parameters: parameters,
		Timestamp:  event.Timestamp.Unix(),
	}
}

// handleHealth provides system health information
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":         "ok",
		"timestamp":      time.Now(),
		"model_ready":    s.engine.Classifier().Ready(),
		"examples":       s.learner.ExampleCount(),
		"nats_connected": s.nats.IsConnected(),
	}

	if err := s.db.Ping(); err != nil {
		health["status"] = "degraded"
		health["database_error"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := writeJSON(w, health); err != nil {
		logging.LogError(err, "Failed to write health response")
	}
}

// handleClassify handles POST /api/classify
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Text string `json:"text"`
	}

	if err := readJSON(r, &request); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if request.Text == "" {
		http.Error(w, "Text required", http.StatusBadRequest)
		return
	}

	result := s.engine.Classify(request.Text)

	w.Header().Set("Content-Type", "application/json")
	if err := writeJSON(w, result); err != nil {
		logging.LogError(err, "Failed to write classify response")
	}
}

// handleClassifyCompound handles POST /api/classify/compound
func (s *Server) handleClassifyCompound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Text string `json:"text"`
	}

	if err := readJSON(r, &request); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if request.Text == "" {
		http.Error(w, "Text required", http.StatusBadRequest)
		return
	}

	results := s.engine.ClassifyCompound(request.Text)

	response := map[string]interface{}{
		"results": results,
		"count":   len(results),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := writeJSON(w, response); err != nil {
		logging.LogError(err, "Failed to write compound classify response")
	}
}

// handleCategories handles GET /api/categories
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := writeJSON(w, s.registry.Handlers()); err != nil {
		logging.LogError(err, "Failed to write categories response")
	}
}

// handleLearn handles POST /api/learn: a user-confirmed (text, category)
// pair entering the trusted dataset
func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Text     string `json:"text"`
		Category string `json:"category"`
	}

	if err := readJSON(r, &request); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if request.Text == "" || request.Category == "" {
		http.Error(w, "Text and category required", http.StatusBadRequest)
		return
	}

	category := intent.Category(request.Category)
	if _, ok := s.registry.Lookup(category); !ok {
		http.Error(w, "Unregistered category", http.StatusBadRequest)
		return
	}

	added := s.learner.AddExample(request.Text, category)

	w.Header().Set("Content-Type", "application/json")
	if err := writeJSON(w, map[string]interface{}{"added": added}); err != nil {
		logging.LogError(err, "Failed to write learn response")
	}
}

// handleReview handles GET /api/review (list the pending queue) and
// POST /api/review (approve or reject one entry)
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listReviews(w, r)
	case http.MethodPost:
		s.resolveReview(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	pending, err := s.learner.ListPending(limit)
	if err != nil {
		logging.LogError(err, "Failed to list pending reviews")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := writeJSON(w, map[string]interface{}{"pending": pending}); err != nil {
		logging.LogError(err, "Failed to write review response")
	}
}

func (s *Server) resolveReview(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ID       int64  `json:"id"`
		Action   string `json:"action"`
		Category string `json:"category,omitempty"`
	}

	if err := readJSON(r, &request); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if request.Category != "" {
		if _, ok := s.registry.Lookup(intent.Category(request.Category)); !ok {
			http.Error(w, "Unregistered category", http.StatusBadRequest)
			return
		}
	}

	var err error
	switch request.Action {
	case "approve":
		err = s.learner.Approve(request.ID, intent.Category(request.Category))
	case "reject":
		err = s.learner.Reject(request.ID)
	default:
		http.Error(w, "Action must be approve or reject", http.StatusBadRequest)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := writeJSON(w, map[string]string{"status": "ok"}); err != nil {
		logging.LogError(err, "Failed to write review response")
	}
}

// handleSuggest handles GET /api/suggest?q=...
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Query parameter q required", http.StatusBadRequest)
		return
	}

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	suggestions := s.learner.Suggest(query, limit)

	w.Header().Set("Content-Type", "application/json")
	if err := writeJSON(w, map[string]interface{}{"suggestions": suggestions}); err != nil {
		logging.LogError(err, "Failed to write suggest response")
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

func readJSON(r *http.Request, data interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	defer func() { _ = r.Body.Close() }()

	return json.Unmarshal(body, data)
}
