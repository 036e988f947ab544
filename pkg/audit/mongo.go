package audit

import (
	"context"

	"github.com/example/restaurant/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
)

// AuditWriter is satisfied by *repository.MongoRepository.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

type MongoSink struct {
	Repo AuditWriter
}

func (s MongoSink) Write(ctx context.Context, e *Entry) error {
	var data bson.M
	if len(e.Data) > 0 {
		data = bson.M(e.Data)
	}
	return s.Repo.CreateAuditLog(ctx, &repository.AuditLog{
		Service:   e.Service,
		Action:    string(e.Action),
		EntityID:  e.EntityID,
		Data:      data,
		CreatedAt: e.CreatedAt,
	})
}
