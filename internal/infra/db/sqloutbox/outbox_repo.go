// Package sqloutbox lee la tabla outbox que escriben los repositorios SQL.
// SQLite y Postgres solo difieren en placeholders y literales booleanos.
package sqloutbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	sharedDomain "github.com/vskolike/groupdir/shared/domain"
)

// Dialect describe lo que cambia entre motores.
type Dialect struct {
	Placeholder func(n int) string
	False       string
	True        string
}

var (
	SQLite = Dialect{
		Placeholder: func(int) string { return "?" },
		False:       "0",
		True:        "1",
	}
	Postgres = Dialect{
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		False:       "false",
		True:        "true",
	}
)

// OutboxRepo implementa sharedDomain.OutboxRepository para un tipo de agregado.
// Las filas de otros agregados que compartan la tabla no se tocan.
type OutboxRepo struct {
	db            *sql.DB
	aggregateType string
	pendingQuery  string
	markQuery     string
}

var _ sharedDomain.OutboxRepository = (*OutboxRepo)(nil)

func New(db *sql.DB, dialect Dialect, aggregateType string) *OutboxRepo {
	ph := dialect.Placeholder
	return &OutboxRepo{
		db:            db,
		aggregateType: aggregateType,
		pendingQuery: fmt.Sprintf(
			`SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
			 FROM outbox
			 WHERE processed = %s AND aggregate_type = %s
			 ORDER BY created_at, id
			 LIMIT %s`, dialect.False, ph(1), ph(2)),
		markQuery: fmt.Sprintf(
			`UPDATE outbox SET processed = %s WHERE id = %s AND aggregate_type = %s`,
			dialect.True, ph(1), ph(2)),
	}
}

// FetchPendingOutbox devuelve hasta limit eventos sin publicar, del más antiguo al más nuevo.
func (r *OutboxRepo) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, r.pendingQuery, r.aggregateType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []sharedDomain.OutboxEvent
	for rows.Next() {
		var evt sharedDomain.OutboxEvent
		var raw []byte // TEXT en SQLite, JSONB en Postgres

		if err := rows.Scan(&evt.ID, &evt.AggregateType, &evt.AggregateID, &evt.EventType, &raw, &evt.CreatedAt); err != nil {
			return nil, err
		}
		if evt.Payload, err = DecodePayload(evt.ID, raw); err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// MarkOutboxProcessed marca un evento como publicado. Un id desconocido es un error.
func (r *OutboxRepo) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.markQuery, id.String(), r.aggregateType)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

// DecodePayload convierte el JSON guardado en un mapa genérico; el relayer
// lo retipa después con el registro de eventos.
func DecodePayload(id uuid.UUID, raw []byte) (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON payload in outbox row %s: %w", id, err)
	}
	return payload, nil
}
