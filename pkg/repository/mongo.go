package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/restaurant/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository stores the audit trail of menu edits and placed orders.
type MongoRepository struct {
	client *mongo.Client
	audit  *mongo.Collection
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	// Connect is lazy; fail at startup rather than on the first audit write.
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach MongoDB: %w", err)
	}

	return &MongoRepository{
		client: client,
		audit:  client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// AuditLog is one admin or checkout event.
type AuditLog struct {
	ID        string    `bson:"_id,omitempty"`
	Service   string    `bson:"service"`
	Action    string    `bson:"action"`
	EntityID  uint      `bson:"entity_id"`
	Data      bson.M    `bson:"data,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// auditIndexes serve the two reads staff do: recent activity, and the
// history of one menu item or order.
func auditIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
		{
			Keys:    bson.D{{Key: "action", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("action_entity_created"),
		},
	}
}

// EnsureIndexes is idempotent; existing indexes with the same spec are kept.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := m.audit.Indexes().CreateMany(ctx, auditIndexes()); err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}

func (m *MongoRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if _, err := m.audit.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
