package audit

import (
	"encoding/json"
	"log"
	"time"

	"ms-catalog/internal/models"
	"ms-catalog/internal/utils"
)

// EventStore persists audit entries. The trail is append-only.
type EventStore interface {
	InsertEvent(entry models.EventLogEntry) error
}

// Publisher fans audit events out to a message broker.
type Publisher interface {
	Publish(topic, key string, value []byte) error
}

// Recorder writes one event log row per mutating operation and, when a
// producer is wired, publishes the same entry to Kafka. The store write is
// authoritative; publish failures are logged and dropped.
type Recorder struct {
	Store    EventStore
	Producer Publisher
	Topic    string
	Logger   *log.Logger
}

func NewRecorder(store EventStore, producer Publisher, topic string) *Recorder {
	return &Recorder{
		Store:    store,
		Producer: producer,
		Topic:    topic,
		Logger:   log.Default(),
	}
}

func (r *Recorder) Record(entityType, entityID, action string, data, previous map[string]interface{}, actorID string) error {
	entry := models.EventLogEntry{
		ID:           utils.GenerateEventID(),
		EntityType:   entityType,
		EntityID:     entityID,
		Action:       action,
		Data:         data,
		PreviousData: previous,
		ActorID:      actorID,
		CreatedAt:    time.Now(),
	}
	if err := r.Store.InsertEvent(entry); err != nil {
		return err
	}
	if r.Producer != nil {
		payload, err := json.Marshal(entry)
		if err != nil {
			r.Logger.Printf("AUDIT: failed to marshal event %s: %v", entry.ID, err)
			return nil
		}
		if err := r.Producer.Publish(r.Topic, entityID, payload); err != nil {
			r.Logger.Printf("AUDIT: failed to publish event %s to %s: %v", entry.ID, r.Topic, err)
		}
	}
	return nil
}
