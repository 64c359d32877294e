package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
	"github.com/vskolike/groupdir/internal/group/infra/outbound/db/sqlcommon"
	sharedDomain "github.com/vskolike/groupdir/shared/domain"
	sharedQuery "github.com/vskolike/groupdir/shared/platform/query"
)

// SQLSTATE unique_violation
const uniqueViolation = "23505"

type GroupRepoPostgres struct {
	db *sql.DB
}

func NewGroupRepoPostgres(db *sql.DB) *GroupRepoPostgres {
	return &GroupRepoPostgres{db: db}
}

var _ groupDomain.GroupRepository = (*GroupRepoPostgres)(nil)

// ------------------ Helper DRY para insertar en outbox ------------------

func insertOutboxTx(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at, processed)
		 VALUES ($1, $2, $3, $4, $5, $6, false)`,
		evt.ID, evt.AggregateType, evt.AggregateID, evt.EventType, payloadBytes, evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ------------------ Escritura + Outbox ------------------

// Create inserta el grupo y su evento en transacción
func (r *GroupRepoPostgres) Create(ctx context.Context, g *groupDomain.Group, evt sharedDomain.OutboxEvent) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO identity_groups (id, name, type) VALUES ($1, $2, $3)`,
		g.ID, g.Name, g.Type,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", groupDomain.ErrDuplicateIdentity, g.ID)
		}
		return fmt.Errorf("db error: %w", err)
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// ------------------ Lectura ------------------

func (r *GroupRepoPostgres) GetByID(ctx context.Context, id string) (*groupDomain.Group, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqlcommon.GroupColumns+` FROM identity_groups WHERE id = $1`, id)

	var g groupDomain.Group
	if err := row.Scan(&g.ID, &g.Name, &g.Type); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, groupDomain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &g, nil
}

func (r *GroupRepoPostgres) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.OffsetPagination, sort sharedQuery.Sort) ([]*groupDomain.Group, error) {
	query, args, err := sqlcommon.SelectPage(criteria, pagination, sort, sqlcommon.Dollar)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var groups []*groupDomain.Group
	for rows.Next() {
		var g groupDomain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Type); err != nil {
			return nil, err
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

func (r *GroupRepoPostgres) CountByCriteria(ctx context.Context, criteria sharedDomain.Criteria) (int64, error) {
	query, args, err := sqlcommon.SelectCount(criteria, sqlcommon.Dollar)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

// ------------------ Membresías ------------------

func (r *GroupRepoPostgres) ensureGroup(ctx context.Context, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM identity_groups WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return groupDomain.ErrGroupNotFound
	}
	return err
}

func (r *GroupRepoPostgres) AddMember(ctx context.Context, groupID, userID string) error {
	if err := r.ensureGroup(ctx, groupID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		groupID, userID,
	)
	return err
}

func (r *GroupRepoPostgres) RemoveMember(ctx context.Context, groupID, userID string) error {
	if err := r.ensureGroup(ctx, groupID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	return err
}

func (r *GroupRepoPostgres) AddStarter(ctx context.Context, processDefinitionID, groupID string) error {
	if err := r.ensureGroup(ctx, groupID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO starter_links (process_definition_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		processDefinitionID, groupID,
	)
	return err
}

// ------------------ Inicialización ------------------

func InitPostgres(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS identity_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT ''
	)`,
		`CREATE TABLE IF NOT EXISTS memberships (
		group_id TEXT NOT NULL REFERENCES identity_groups(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		PRIMARY KEY (group_id, user_id)
	)`,
		`CREATE TABLE IF NOT EXISTS starter_links (
		process_definition_id TEXT NOT NULL,
		group_id TEXT NOT NULL REFERENCES identity_groups(id) ON DELETE CASCADE,
		PRIMARY KEY (process_definition_id, group_id)
	)`,
		`CREATE TABLE IF NOT EXISTS outbox (
		id UUID PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL,
		processed BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
