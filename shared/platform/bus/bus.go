package bus

import "context"

// Keyer lo implementan los eventos con clave de partición. En Kafka todos los
// eventos de un mismo grupo caen en la misma partición y conservan el orden.
type Keyer interface {
	PartitionKey() string
}

// EventPublisher publica en un único topic; el relayer guarda uno por topic.
// Un error significa que el evento no salió y debe seguir pendiente en el outbox.
type EventPublisher interface {
	Publish(ctx context.Context, event interface{}) error
}
