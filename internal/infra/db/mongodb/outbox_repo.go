package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	sharedDomain "github.com/vskolike/groupdir/shared/domain"
)

// OutboxRepoMongoDB lee la colección outbox que escribe el repositorio de
// grupos dentro de su transacción. Solo ve documentos de su aggregateType.
type OutboxRepoMongoDB struct {
	outboxColl    *mongo.Collection
	aggregateType string
}

var _ sharedDomain.OutboxRepository = (*OutboxRepoMongoDB)(nil)

func NewOutboxRepoMongoDB(client *mongo.Client, dbName, aggregateType string) *OutboxRepoMongoDB {
	return &OutboxRepoMongoDB{
		outboxColl:    client.Database(dbName).Collection("outbox"),
		aggregateType: aggregateType,
	}
}

type mongoOutboxEvent struct {
	ID            uuid.UUID `bson:"_id"`
	AggregateType string    `bson:"aggregateType"`
	AggregateID   string    `bson:"aggregateId"`
	EventType     string    `bson:"eventType"`
	Payload       bson.M    `bson:"payload"`
	CreatedAt     time.Time `bson:"createdAt"`
	Processed     bool      `bson:"processed"`
}

func (r *OutboxRepoMongoDB) pendingFilter() bson.M {
	return bson.M{"processed": false, "aggregateType": r.aggregateType}
}

// FetchPendingOutbox devuelve hasta limit eventos sin publicar, del más antiguo al más nuevo.
func (r *OutboxRepoMongoDB) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	if limit <= 0 {
		return nil, nil // en Mongo 0 sería "sin límite"
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.outboxColl.Find(ctx, r.pendingFilter(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []sharedDomain.OutboxEvent
	for cursor.Next(ctx) {
		var mo mongoOutboxEvent
		if err := cursor.Decode(&mo); err != nil {
			return nil, fmt.Errorf("invalid outbox document: %w", err)
		}
		events = append(events, fromMongoOutboxEvent(&mo))
	}
	return events, cursor.Err()
}

func (r *OutboxRepoMongoDB) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.outboxColl.UpdateOne(ctx,
		bson.M{"_id": id, "aggregateType": r.aggregateType},
		bson.M{"$set": bson.M{"processed": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

func fromMongoOutboxEvent(mo *mongoOutboxEvent) sharedDomain.OutboxEvent {
	payload, _ := plainValue(mo.Payload).(map[string]interface{})
	return sharedDomain.OutboxEvent{
		ID:            mo.ID,
		AggregateType: mo.AggregateType,
		AggregateID:   mo.AggregateID,
		EventType:     mo.EventType,
		Payload:       payload,
		CreatedAt:     mo.CreatedAt,
		Processed:     mo.Processed,
	}
}

// plainValue convierte bson.M, bson.D y bson.A anidados a mapas y slices de
// Go, igual que los deja el JSON de los repositorios SQL.
func plainValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.M:
		return plainMap(val)
	case map[string]interface{}:
		return plainMap(val)
	case bson.D:
		out := make(map[string]interface{}, len(val))
		for _, e := range val {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case bson.A:
		return plainSlice(val)
	case []interface{}:
		return plainSlice(val)
	default:
		return v
	}
}

func plainMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

func plainSlice(s []interface{}) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = plainValue(v)
	}
	return out
}
