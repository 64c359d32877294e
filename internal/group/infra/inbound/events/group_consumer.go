package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
	sharedEvents "github.com/vskolike/groupdir/shared/events"
	sharedUtils "github.com/vskolike/groupdir/shared/utils"
)

const handleTimeout = 500 * time.Millisecond

// GroupService es lo que el consumidor necesita del servicio de grupos.
type GroupService interface {
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	GrantStarter(ctx context.Context, processDefinitionID, groupID string) error
}

// GroupConsumer aplica los eventos de membresía y de iniciadores, y lleva las
// altas de grupos a analítica.
type GroupConsumer struct {
	service   GroupService
	analytics groupDomain.GroupAnalyticsRepository
	log       *zap.Logger
}

// NewGroupConsumer es el constructor. analytics puede ser nil.
func NewGroupConsumer(service GroupService, analytics groupDomain.GroupAnalyticsRepository, logger *zap.Logger) *GroupConsumer {
	return &GroupConsumer{
		service:   service,
		analytics: analytics,
		log:       logger,
	}
}

// HandleMessage es el punto de entrada para un nuevo mensaje/evento.
// Todas las operaciones son idempotentes, así que un reenvío no hace daño.
func (c *GroupConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case groupDomain.MembershipAdded:
		sharedUtils.UnmarshalAndHandle[sharedEvents.MembershipChanged](c.log, base.Data, func(evt sharedEvents.MembershipChanged) {
			c.withContext(ctx, evt.GroupID, func(ctxGroup context.Context) error {
				return c.service.AddMember(ctxGroup, evt.GroupID, evt.UserID)
			}, "Member added via event", evt)
		})

	case groupDomain.MembershipRemoved:
		sharedUtils.UnmarshalAndHandle[sharedEvents.MembershipChanged](c.log, base.Data, func(evt sharedEvents.MembershipChanged) {
			c.withContext(ctx, evt.GroupID, func(ctxGroup context.Context) error {
				return c.service.RemoveMember(ctxGroup, evt.GroupID, evt.UserID)
			}, "Member removed via event", evt)
		})

	case groupDomain.StarterGranted:
		sharedUtils.UnmarshalAndHandle[sharedEvents.StarterGranted](c.log, base.Data, func(evt sharedEvents.StarterGranted) {
			c.withContext(ctx, evt.GroupID, func(ctxGroup context.Context) error {
				return c.service.GrantStarter(ctxGroup, evt.ProcessDefinitionID, evt.GroupID)
			}, "Starter granted via event", evt)
		})

	case groupDomain.GroupCreated:
		if c.analytics == nil {
			return
		}
		sharedUtils.UnmarshalAndHandle[sharedEvents.GroupCreated](c.log, base.Data, func(evt sharedEvents.GroupCreated) {
			c.withContext(ctx, evt.ID, func(ctxGroup context.Context) error {
				return c.analytics.LogBatch(ctxGroup, []*groupDomain.Group{{ID: evt.ID, Name: evt.Name, Type: evt.Type}})
			}, "Group creation logged to analytics", evt)
		})

	default:
		c.log.Warn("Unknown event type", zap.String("type", base.Type))
	}
}

// Helper para ejecutar acción con contexto limitado y log
func (c *GroupConsumer) withContext(ctx context.Context, groupID string, action func(ctx context.Context) error, successMsg string, evt interface{}) {
	ctxGroup, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if err := action(ctxGroup); err != nil {
		c.log.Warn("Failed to process group event",
			zap.String("group_id", groupID),
			zap.Any("event", evt),
			zap.Error(err),
		)
		return
	}
	c.log.Info(successMsg,
		zap.String("group_id", groupID),
		zap.Any("event", evt),
	)
}
