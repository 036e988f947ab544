package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// auditActor serialises writes to the sink.
type auditActor struct {
	sink   Sink
	logger *zap.Logger
}

func (a *auditActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *Entry:
		wctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := a.sink.Write(wctx, msg); err != nil {
			a.logger.Error("Failed to write audit entry",
				zap.String("action", string(msg.Action)),
				zap.Uint("entity_id", msg.EntityID),
				zap.Error(err))
		}

	case *actor.Started:
		a.logger.Info("Audit actor started")

	case *actor.Stopped:
		a.logger.Info("Audit actor stopped")
	}
}

// ActorRecorder hands entries to an actor mailbox so callers never wait on the sink.
type ActorRecorder struct {
	system  *actor.ActorSystem
	pid     *actor.PID
	service string
	now     func() time.Time
}

func NewActorRecorder(system *actor.ActorSystem, sink Sink, service string, logger *zap.Logger) (*ActorRecorder, error) {
	props := actor.PropsFromProducer(func() actor.Actor {
		return &auditActor{sink: sink, logger: logger.Named("audit-actor")}
	})
	pid, err := system.Root.SpawnNamed(props, "audit-log")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn audit actor: %w", err)
	}

	return &ActorRecorder{
		system:  system,
		pid:     pid,
		service: service,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *ActorRecorder) Record(action Action, entityID uint, data map[string]interface{}) {
	r.system.Root.Send(r.pid, &Entry{
		Service:   r.service,
		Action:    action,
		EntityID:  entityID,
		Data:      data,
		CreatedAt: r.now(),
	})
}

// Close drains the mailbox and stops the actor.
func (r *ActorRecorder) Close() error {
	return r.system.Root.PoisonFuture(r.pid).Wait()
}
