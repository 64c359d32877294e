package mongodb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
)

func TestFromMongoOutboxEvent_PlainPayload(t *testing.T) {
	id := uuid.New()
	createdAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mo := &mongoOutboxEvent{
		ID:            id,
		AggregateType: groupDomain.AggregateType,
		AggregateID:   "sales",
		EventType:     groupDomain.GroupCreated,
		Payload: bson.M{
			"id":    "sales",
			"meta":  bson.D{{Key: "source", Value: "import"}},
			"tags":  bson.A{"eu", bson.M{"k": "v"}},
			"owner": bson.M{"name": "kermit"},
		},
		CreatedAt: createdAt,
	}

	evt := fromMongoOutboxEvent(mo)

	assert.Equal(t, id, evt.ID)
	assert.Equal(t, "sales", evt.AggregateID)
	assert.Equal(t, createdAt, evt.CreatedAt)
	assert.Equal(t, map[string]interface{}{
		"id":    "sales",
		"meta":  map[string]interface{}{"source": "import"},
		"tags":  []interface{}{"eu", map[string]interface{}{"k": "v"}},
		"owner": map[string]interface{}{"name": "kermit"},
	}, evt.Payload)
}

func TestFromMongoOutboxEvent_DecodedDocument(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"aggregateType": groupDomain.AggregateType,
		"aggregateId":   "sales",
		"eventType":     groupDomain.GroupCreated,
		"payload":       bson.M{"id": "sales", "name": "Sales", "type": "assignment"},
		"processed":     false,
	})
	require.NoError(t, err)

	var mo mongoOutboxEvent
	require.NoError(t, bson.Unmarshal(raw, &mo))

	evt := fromMongoOutboxEvent(&mo)
	assert.Equal(t, map[string]interface{}{"id": "sales", "name": "Sales", "type": "assignment"}, evt.Payload)
	assert.Equal(t, groupDomain.GroupCreated, evt.EventType)
}

func TestFromMongoOutboxEvent_NilPayload(t *testing.T) {
	evt := fromMongoOutboxEvent(&mongoOutboxEvent{ID: uuid.New()})
	assert.Nil(t, evt.Payload)
}

func TestPendingFilter_ScopedToAggregate(t *testing.T) {
	repo := &OutboxRepoMongoDB{aggregateType: groupDomain.AggregateType}
	assert.Equal(t, bson.M{"processed": false, "aggregateType": "group"}, repo.pendingFilter())
}
