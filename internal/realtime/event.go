package realtime

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventHistoryAppended EventType = "material.history.appended"
)

// Event is published after a history record has been written.
type Event struct {
	Type       EventType `json:"type"`
	MaterialID uuid.UUID `json:"material_id"`
	HistoryID  uuid.UUID `json:"history_id"`
	Version    int64     `json:"version"`
	Reason     string    `json:"reason"`
	ActorID    uuid.UUID `json:"actor_id"`
	At         time.Time `json:"at"`
}
