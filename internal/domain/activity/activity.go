// Package activity provides the operation activity log. Recording is
// fire-and-forget: a failed write is logged and swallowed, never failing
// the owning stock operation.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"millstock/internal/core/id"
	"millstock/pkg/logger"
)

// Action is the kind of recorded operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
)

// Entry is one activity record.
type Entry struct {
	ID        id.ID           `db:"id" json:"id"`
	Entity    string          `db:"entity" json:"entity"`
	EntityID  string          `db:"entity_id" json:"entityId"`
	Action    Action          `db:"action" json:"action"`
	Payload   json.RawMessage `db:"payload" json:"payload,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// Store persists activity entries.
type Store interface {
	Save(ctx context.Context, entry *Entry) error
}

// Service records activity entries with fire-and-forget semantics.
type Service struct {
	store Store
}

// NewService creates an activity service. A nil store disables recording.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Record writes one activity entry. Marshalling or storage failures are
// logged and swallowed.
func (s *Service) Record(ctx context.Context, entity, entityID string, action Action, payload any) {
	if s == nil || s.store == nil {
		return
	}

	entry := &Entry{
		ID:        id.New(),
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			logger.Warn(ctx, "activity payload marshal failed",
				"entity", entity, "entity_id", entityID, "error", err)
		} else {
			entry.Payload = raw
		}
	}

	if err := s.store.Save(ctx, entry); err != nil {
		logger.Warn(ctx, "activity record failed",
			"entity", entity, "entity_id", entityID, "error", err)
	}
}
