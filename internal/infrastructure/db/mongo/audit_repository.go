package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
)

const collectionAuditLogs = "audit_logs"

// AuditRepository implements ports.AuditStore using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) ports.AuditStore {
	return &AuditRepository{col: db.Collection(collectionAuditLogs)}
}

// Append persists an audit entry to the audit_logs collection.
func (r *AuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, auditDocument(entry))
	return err
}

func auditDocument(entry *domain.AuditEntry) bson.M {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	doc := bson.M{
		"_id":        entry.ID,
		"action":     entry.Action,
		"target_id":  entry.TargetID,
		"created_at": createdAt.UTC(),
	}
	if entry.ActorID != "" {
		doc["actor_id"] = entry.ActorID
	}
	if len(entry.Metadata) > 0 {
		doc["metadata"] = entry.Metadata
	}
	return doc
}

// EnsureAuditIndexes creates necessary indexes on the audit_logs collection.
func EnsureAuditIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := db.Collection(collectionAuditLogs).Indexes().CreateMany(ctx, indexes)
	return err
}
