package domain

import (
	"context"
	"errors"
	"fmt"

	sharedDomain "github.com/vskolike/groupdir/shared/domain"
	sharedQuery "github.com/vskolike/groupdir/shared/platform/query"
)

// ---------- Errores de dominio ----------
var (
	ErrGroupNotFound = errors.New("group not found")
	// ErrDuplicateIdentity es un conflicto, no un error de validación.
	ErrDuplicateIdentity = errors.New("group already exists")
	ErrMissingIdentity   = fmt.Errorf("%w: group id cannot be null", sharedDomain.ErrInvalidInput)
)

// ---------- Interfaces (Ports) ----------

// GroupRepository define las operaciones persistentes para Group.
type GroupRepository interface {
	// Debe devolver ErrDuplicateIdentity si la restricción de unicidad del store salta.
	Create(ctx context.Context, g *Group, evt sharedDomain.OutboxEvent) error

	// Debe devolver ErrGroupNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Group, error)

	// ListByCriteria aplica filtro, orden y ventana. sort.Field ya viene resuelto.
	ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.OffsetPagination, sort sharedQuery.Sort) ([]*Group, error)

	// CountByCriteria cuenta todas las coincidencias, sin ventana ni orden.
	CountByCriteria(ctx context.Context, criteria sharedDomain.Criteria) (int64, error)

	// Membresías. Deben devolver ErrGroupNotFound si el grupo no existe.
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error

	// AddStarter enlaza el grupo como iniciador candidato de la definición de proceso.
	AddStarter(ctx context.Context, processDefinitionID, groupID string) error
}

// GroupAnalyticsRepository registra altas de grupos para consultas agregadas.
type GroupAnalyticsRepository interface {
	LogBatch(ctx context.Context, groups []*Group) error
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id string) string {
	return fmt.Sprintf("group:id:%s", id)
}
