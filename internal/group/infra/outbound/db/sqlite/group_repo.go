package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
	"github.com/vskolike/groupdir/internal/group/infra/outbound/db/sqlcommon"
	sharedDomain "github.com/vskolike/groupdir/shared/domain"
	sharedQuery "github.com/vskolike/groupdir/shared/platform/query"
)

type GroupRepoSQLite struct {
	db *sql.DB
}

func NewGroupRepoSQLite(db *sql.DB) *GroupRepoSQLite {
	return &GroupRepoSQLite{db: db}
}

var _ groupDomain.GroupRepository = (*GroupRepoSQLite)(nil)

// ------------------ Helper DRY para insertar en outbox ------------------

func insertOutboxTx(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (id,aggregate_type,aggregate_id,event_type,payload,created_at,processed)
		 VALUES (?,?,?,?,?,?,0)`,
		evt.ID.String(), evt.AggregateType, evt.AggregateID, evt.EventType, string(payloadBytes), evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}

// isUniqueViolation detecta la violación de PRIMARY KEY / UNIQUE.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// sin códigos extendidos solo queda el mensaje
		return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

// ------------------ Métodos ------------------

// Create inserta el grupo y su evento en transacción
func (r *GroupRepoSQLite) Create(ctx context.Context, g *groupDomain.Group, evt sharedDomain.OutboxEvent) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO identity_groups (id, name, type) VALUES (?, ?, ?)`,
		g.ID, g.Name, g.Type,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", groupDomain.ErrDuplicateIdentity, g.ID)
		}
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *GroupRepoSQLite) GetByID(ctx context.Context, id string) (*groupDomain.Group, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqlcommon.GroupColumns+` FROM identity_groups WHERE id = ?`, id)

	var g groupDomain.Group
	if err := row.Scan(&g.ID, &g.Name, &g.Type); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, groupDomain.ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepoSQLite) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.OffsetPagination, sort sharedQuery.Sort) ([]*groupDomain.Group, error) {
	query, args, err := sqlcommon.SelectPage(criteria, pagination, sort, sqlcommon.Question)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
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

func (r *GroupRepoSQLite) CountByCriteria(ctx context.Context, criteria sharedDomain.Criteria) (int64, error) {
	query, args, err := sqlcommon.SelectCount(criteria, sqlcommon.Question)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ------------------ Membresías ------------------

func (r *GroupRepoSQLite) ensureGroup(ctx context.Context, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM identity_groups WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return groupDomain.ErrGroupNotFound
	}
	return err
}

func (r *GroupRepoSQLite) AddMember(ctx context.Context, groupID, userID string) error {
	if err := r.ensureGroup(ctx, groupID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (group_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		groupID, userID,
	)
	return err
}

func (r *GroupRepoSQLite) RemoveMember(ctx context.Context, groupID, userID string) error {
	if err := r.ensureGroup(ctx, groupID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	return err
}

func (r *GroupRepoSQLite) AddStarter(ctx context.Context, processDefinitionID, groupID string) error {
	if err := r.ensureGroup(ctx, groupID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO starter_links (process_definition_id, group_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		processDefinitionID, groupID,
	)
	return err
}

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas si no existen y activa LIKE sensible a
// mayúsculas, como en Postgres y Mongo. El PRAGMA es por conexión: el pool
// debe limitarse a una (db.SetMaxOpenConns(1)).
func InitSQLite(db *sql.DB) error {
	statements := []string{
		`PRAGMA case_sensitive_like = ON`,
		`CREATE TABLE IF NOT EXISTS identity_groups (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL DEFAULT '',
            type TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS memberships (
            group_id TEXT NOT NULL REFERENCES identity_groups(id),
            user_id TEXT NOT NULL,
            PRIMARY KEY (group_id, user_id)
        )`,
		`CREATE TABLE IF NOT EXISTS starter_links (
            process_definition_id TEXT NOT NULL,
            group_id TEXT NOT NULL REFERENCES identity_groups(id),
            PRIMARY KEY (process_definition_id, group_id)
        )`,
		`CREATE TABLE IF NOT EXISTS outbox (
            id TEXT PRIMARY KEY,
            aggregate_type TEXT NOT NULL,
            aggregate_id TEXT NOT NULL,
            event_type TEXT NOT NULL,
            payload TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            processed BOOLEAN NOT NULL DEFAULT 0
        )`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
