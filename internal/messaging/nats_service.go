package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/voxdesk/voxdesk-hub/internal/intent"
	"github.com/voxdesk/voxdesk-hub/internal/security"
)

// NATSService handles NATS messaging for the VoxDesk system
type NATSService struct {
	conn *nats.Conn
	url  string
}

// IntentEvent is a routed intent published to the capability handlers
type IntentEvent struct {
	EventID    string         `json:"event_id"`
	SessionID  string         `json:"session_id,omitempty"`
	RawText    string         `json:"raw_text"`
	Category   string         `json:"category"`
	Method     string         `json:"method"`
	Confidence float64        `json:"confidence"`
	Parameters map[string]int `json:"parameters,omitempty"`
	Timestamp  int64          `json:"timestamp"`
}

// ConfirmationEvent flows back from the handlers when a user confirms or
// corrects a classification, feeding the learning store
type ConfirmationEvent struct {
	Text      string `json:"text"`
	Category  string `json:"category"`
	Timestamp int64  `json:"timestamp"`
}

// NATS subjects for different event types
const (
	SubjectIntentPrefix      = "voxdesk.intent"
	SubjectLearningConfirmed = "voxdesk.learning.confirmed"
	SubjectSystemEvents      = "voxdesk.system.events"
)

// NewNATSService creates a new NATS service instance
func NewNATSService(url string) *NATSService {
	if url == "" {
		url = nats.DefaultURL
	}

	return &NATSService{url: url}
}

// Connect establishes connection to NATS server
func (ns *NATSService) Connect() error {
	log.Printf("🔌 Connecting to NATS at %s", ns.url)

	// Connection options with retry logic
	opts := []nats.Option{
		nats.Name("voxdesk-hub"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1), // Retry indefinitely
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️  NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("🔄 NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("🔌 NATS connection closed")
		}),
	}

	conn, err := nats.Connect(ns.url, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ns.conn = conn
	log.Printf("✅ Connected to NATS server at %s", conn.ConnectedUrl())
	return nil
}

// IntentSubject returns the per-category subject routed intents publish to
func IntentSubject(category intent.Category) string {
	return fmt.Sprintf("%s.%s", SubjectIntentPrefix, category)
}

// PublishIntent publishes a routed intent to its per-category subject
func (ns *NATSService) PublishIntent(event *IntentEvent) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal intent event: %w", err)
	}

	subject := IntentSubject(intent.Category(event.Category))
	if err := ns.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	log.Printf("📤 Published intent to NATS - Category: %s, Method: %s",
		security.SanitizeLogInput(event.Category), event.Method)
	return nil
}

// SubscribeToIntents subscribes to routed intents for one category
func (ns *NATSService) SubscribeToIntents(category intent.Category, handler func(*IntentEvent)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	subject := IntentSubject(category)
	return ns.conn.Subscribe(subject, func(msg *nats.Msg) {
		var event IntentEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("❌ Error unmarshaling intent event: %v", err)
			return
		}

		log.Printf("📥 Received intent from NATS - Category: %s, Method: %s",
			security.SanitizeLogInput(event.Category), event.Method)
		handler(&event)
	})
}

// SubscribeToConfirmations subscribes to confirmed or corrected commands
// flowing back from the capability handlers
func (ns *NATSService) SubscribeToConfirmations(handler func(*ConfirmationEvent)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return ns.conn.Subscribe(SubjectLearningConfirmed, func(msg *nats.Msg) {
		var event ConfirmationEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("❌ Error unmarshaling confirmation event: %v", err)
			return
		}

		log.Printf("📥 Received confirmation from NATS - Category: %s",
			security.SanitizeLogInput(event.Category))
		handler(&event)
	})
}

// PublishConfirmation publishes a confirmed command, used by tooling that
// corrects classifications out of band
func (ns *NATSService) PublishConfirmation(event *ConfirmationEvent) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation event: %w", err)
	}

	if err := ns.conn.Publish(SubjectLearningConfirmed, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectLearningConfirmed, err)
	}

	log.Printf("📤 Published confirmation to NATS - Category: %s",
		security.SanitizeLogInput(event.Category))
	return nil
}

// Close closes the NATS connection
func (ns *NATSService) Close() {
	if ns.conn != nil {
		ns.conn.Close()
		log.Println("🔌 NATS connection closed")
	}
}

// IsConnected returns true if connected to NATS
func (ns *NATSService) IsConnected() bool {
	return ns.conn != nil && ns.conn.IsConnected()
}
