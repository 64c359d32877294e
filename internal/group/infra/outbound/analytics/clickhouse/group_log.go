package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
)

// GroupAnalyticsRepo implementa GroupAnalyticsRepository para ClickHouse.
type GroupAnalyticsRepo struct {
	db *sql.DB
}

var _ groupDomain.GroupAnalyticsRepository = (*GroupAnalyticsRepo)(nil)

// OpenClickHouse abre y verifica la conexión.
func OpenClickHouse(addr, dbName, user, password string) (*sql.DB, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
			Username: user,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}
	return conn, nil
}

// NewGroupAnalyticsRepo es el constructor.
func NewGroupAnalyticsRepo(db *sql.DB) *GroupAnalyticsRepo {
	return &GroupAnalyticsRepo{db: db}
}

// LogBatch inserta un lote de altas. ClickHouse funciona mejor con inserciones en lotes.
func (r *GroupAnalyticsRepo) LogBatch(ctx context.Context, groups []*groupDomain.Group) error {
	if len(groups) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO groups_log (id, name, type, event_type, event_time)")
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	eventTime := time.Now().UTC()
	for _, g := range groups {
		if _, err := stmt.ExecContext(ctx, g.ID, g.Name, g.Type, groupDomain.GroupCreated, eventTime); err != nil {
			// Un registro fallido descarta todo el lote.
			_ = tx.Rollback()
			return fmt.Errorf("failed to exec statement for group %s: %w", g.ID, err)
		}
	}

	return tx.Commit()
}

// InitSchema crea la tabla en ClickHouse si no existe.
func (r *GroupAnalyticsRepo) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS groups_log (
			id         String,
			name       String,
			type       String,
			event_type LowCardinality(String),
			event_time DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (type, event_time);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}
