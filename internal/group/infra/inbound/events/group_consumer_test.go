package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vskolike/groupdir/internal/group/application"
	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
	sharedEvents "github.com/vskolike/groupdir/shared/events"
	"github.com/vskolike/groupdir/tests/mocks"
)

type fakeAnalytics struct {
	logged []*groupDomain.Group
}

func (f *fakeAnalytics) LogBatch(ctx context.Context, groups []*groupDomain.Group) error {
	f.logged = append(f.logged, groups...)
	return nil
}

func integrationEvent(t *testing.T, eventType string, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(sharedEvents.IntegrationEvent{Type: eventType, Timestamp: time.Now(), Data: raw})
	require.NoError(t, err)
	return payload
}

func newConsumer() (*GroupConsumer, *mocks.InMemoryGroupRepo, *fakeAnalytics) {
	repo := mocks.NewInMemoryGroupRepo()
	repo.Seed(&groupDomain.Group{ID: "sales", Name: "Sales", Type: "assignment"})
	service := application.NewGroupService(repo, nil, zap.NewNop())
	analytics := &fakeAnalytics{}
	return NewGroupConsumer(service, analytics, zap.NewNop()), repo, analytics
}

func TestGroupConsumer_MembershipAddedAndRemoved(t *testing.T) {
	consumer, repo, _ := newConsumer()
	ctx := context.Background()

	consumer.HandleMessage(ctx, "sales", integrationEvent(t, groupDomain.MembershipAdded,
		sharedEvents.MembershipChanged{GroupID: "sales", UserID: "kermit"}))
	assert.True(t, repo.Members["sales"]["kermit"])

	// un reenvío no cambia nada
	consumer.HandleMessage(ctx, "sales", integrationEvent(t, groupDomain.MembershipAdded,
		sharedEvents.MembershipChanged{GroupID: "sales", UserID: "kermit"}))
	assert.Len(t, repo.Members["sales"], 1)

	consumer.HandleMessage(ctx, "sales", integrationEvent(t, groupDomain.MembershipRemoved,
		sharedEvents.MembershipChanged{GroupID: "sales", UserID: "kermit"}))
	assert.False(t, repo.Members["sales"]["kermit"])
}

func TestGroupConsumer_StarterGranted(t *testing.T) {
	consumer, repo, _ := newConsumer()

	consumer.HandleMessage(context.Background(), "", integrationEvent(t, groupDomain.StarterGranted,
		sharedEvents.StarterGranted{ProcessDefinitionID: "oneTaskProcess:1", GroupID: "sales"}))
	assert.True(t, repo.Starters["sales"]["oneTaskProcess:1"])
}

func TestGroupConsumer_GroupCreatedGoesToAnalytics(t *testing.T) {
	consumer, _, analytics := newConsumer()

	consumer.HandleMessage(context.Background(), "admin", integrationEvent(t, groupDomain.GroupCreated,
		sharedEvents.GroupCreated{ID: "admin", Name: "Admin", Type: "security-role"}))

	require.Len(t, analytics.logged, 1)
	assert.Equal(t, &groupDomain.Group{ID: "admin", Name: "Admin", Type: "security-role"}, analytics.logged[0])
}

func TestGroupConsumer_IgnoresGarbageAndUnknownGroups(t *testing.T) {
	consumer, repo, analytics := newConsumer()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		consumer.HandleMessage(ctx, "", []byte("not json"))
		consumer.HandleMessage(ctx, "", integrationEvent(t, "something.else", map[string]string{}))
		consumer.HandleMessage(ctx, "", integrationEvent(t, groupDomain.MembershipAdded,
			sharedEvents.MembershipChanged{GroupID: "ghost", UserID: "kermit"}))
	})
	assert.Empty(t, repo.Members["ghost"])
	assert.Empty(t, analytics.logged)
}
