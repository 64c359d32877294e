package events

import (
	"encoding/json"
	"reflect"
	"time"
)

// Base de todos los eventos de integración
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Key       string          `json:"key,omitempty"` // clave de partición (id del agregado)
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"` // contenido específico del evento
}

// PartitionKey permite a los publishers particionar por agregado.
func (e *IntegrationEvent) PartitionKey() string {
	return e.Key
}

type EventMetadata struct {
	Type  reflect.Type
	Topic string
}
