package relayer

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/vskolike/groupdir/shared/domain"
	sharedEvents "github.com/vskolike/groupdir/shared/events"
	sharedBus "github.com/vskolike/groupdir/shared/platform/bus"
	sharedUtils "github.com/vskolike/groupdir/shared/utils"
)

const (
	publishAttempts = 3
	publishDelay    = 200 * time.Millisecond
)

// Worker procesa eventos pendientes de la tabla outbox de forma genérica.
// Cada evento sale envuelto en un sharedEvents.IntegrationEvent hacia el
// publisher de su topic.
type Worker struct {
	repo          sharedDomain.OutboxRepository
	publishers    map[string]sharedBus.EventPublisher
	eventRegistry map[string]sharedEvents.EventMetadata
	interval      time.Duration
	batchSize     int
	log           *zap.Logger
}

// NewOutboxWorker recibe un publisher por topic.
func NewOutboxWorker(
	repo sharedDomain.OutboxRepository,
	publishers map[string]sharedBus.EventPublisher,
	registry map[string]sharedEvents.EventMetadata,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:          repo,
		publishers:    publishers,
		eventRegistry: registry,
		interval:      interval,
		batchSize:     batchSize,
		log:           log,
	}
}

// Start inicia el bucle de polling del worker. Bloquea hasta que ctx se cancela.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox worker iniciado", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox worker detenido.")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

func (w *Worker) ProcessBatch(ctx context.Context) {
	events, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener eventos pendientes", zap.Error(err))
		return
	}
	if len(events) > 0 {
		w.log.Info(fmt.Sprintf("📬 %d eventos encontrados para procesar", len(events)))
	}

	for _, evt := range events {
		w.publishAndMark(ctx, evt)
	}
}

func (w *Worker) publishAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) {
	// 1. Usar el registro para validar el payload contra el tipo de evento
	metadata, ok := w.eventRegistry[evt.EventType]
	if !ok {
		w.log.Error("Tipo de evento desconocido en registro", zap.String("event_type", evt.EventType))
		return
	}
	publisher, ok := w.publishers[metadata.Topic]
	if !ok {
		w.log.Error("No hay publisher para el topic", zap.String("topic", metadata.Topic))
		return
	}

	integrationEvt, err := w.toIntegrationEvent(evt, metadata.Type)
	if err != nil {
		w.log.Error("Error al decodificar payload del evento", zap.String("event_id", evt.ID.String()), zap.Error(err))
		return
	}

	// 2. Publicar con reintentos cortos; si falla, queda pendiente para el siguiente tick
	err = sharedUtils.Retry(ctx, publishAttempts, publishDelay, func() error {
		return publisher.Publish(ctx, integrationEvt)
	})
	if err != nil {
		w.log.Warn("⚠️ No se pudo publicar evento",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return
	}

	// 3. Marcar como procesado en la DB
	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("⚠️ No se pudo marcar evento como procesado",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return
	}
	w.log.Info("✅ Evento publicado y marcado", zap.String("event_id", evt.ID.String()))
}

// toIntegrationEvent pasa el payload por el tipo registrado, de modo que solo
// viajan los campos del contrato.
func (w *Worker) toIntegrationEvent(evt sharedDomain.OutboxEvent, typ reflect.Type) (*sharedEvents.IntegrationEvent, error) {
	typed := reflect.New(typ).Interface()

	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payloadBytes, typed); err != nil {
		return nil, err
	}
	data, err := json.Marshal(typed)
	if err != nil {
		return nil, err
	}

	return &sharedEvents.IntegrationEvent{
		Type:      evt.EventType,
		Key:       evt.AggregateID,
		Timestamp: evt.CreatedAt,
		Data:      data,
	}, nil
}
