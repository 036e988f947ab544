// Package audit records admin and checkout events off the request path.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Action string

const (
	ActionMenuCreated Action = "menu_created"
	ActionMenuUpdated Action = "menu_updated"
	ActionMenuDeleted Action = "menu_deleted"
	ActionOrderPlaced Action = "order_placed"
)

type Entry struct {
	Service   string
	Action    Action
	EntityID  uint
	Data      map[string]interface{}
	CreatedAt time.Time
}

// Recorder must not block the caller.
type Recorder interface {
	Record(action Action, entityID uint, data map[string]interface{})
}

// Sink is where entries finally land.
type Sink interface {
	Write(ctx context.Context, e *Entry) error
}

type Nop struct{}

func (Nop) Record(Action, uint, map[string]interface{}) {}

// LogSink writes entries to the application log. Used when no Mongo is configured.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Write(_ context.Context, e *Entry) error {
	s.Logger.Info("Audit",
		zap.String("service", e.Service),
		zap.String("action", string(e.Action)),
		zap.Uint("entity_id", e.EntityID),
		zap.Any("data", e.Data))
	return nil
}
