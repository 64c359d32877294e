package domain

import (
	"reflect"

	sharedEvents "github.com/vskolike/groupdir/shared/events"
	sharedQuery "github.com/vskolike/groupdir/shared/platform/query"
)

// Tipos de evento, como valores string.
const (
	GroupCreated      = "group.created"
	MembershipAdded   = "membership.added"
	MembershipRemoved = "membership.removed"
	StarterGranted    = "starter.granted"
)

// AggregateType identifica las filas de grupos en el outbox.
const AggregateType = "group"

const (
	GroupTopic      = "group"
	MembershipTopic = "membership"
)

// SortFields es la lista blanca de ordenamiento del listado de grupos.
// Se inicializa una vez y no se escribe nunca más.
var SortFields = sharedQuery.MustSortRegistry(FilterID, map[string]string{
	"id":   FieldID,
	"name": FieldName,
	"type": FieldType,
})

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		GroupCreated: {
			Type:  reflect.TypeOf(sharedEvents.GroupCreated{}),
			Topic: GroupTopic,
		},
	}
}
