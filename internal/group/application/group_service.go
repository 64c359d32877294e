package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
	sharedDomain "github.com/vskolike/groupdir/shared/domain"
	sharedEvents "github.com/vskolike/groupdir/shared/events"
	sharedCache "github.com/vskolike/groupdir/shared/platform/cache"
	sharedQuery "github.com/vskolike/groupdir/shared/platform/query"
)

// 0 deja que el adapter de caché aplique su TTL configurado.
const groupCacheTTL = 0

// GroupService define los casos de uso relacionados con Group.
// No reintenta nada: los errores del store se devuelven al llamador.
type GroupService struct {
	repo  groupDomain.GroupRepository
	cache sharedCache.Cache
	log   *zap.Logger
}

// NewGroupService es el constructor del servicio de grupos. cache puede ser nil.
func NewGroupService(repo groupDomain.GroupRepository, cache sharedCache.Cache, log *zap.Logger) *GroupService {
	return &GroupService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// ListGroups traduce filters, valida el orden contra la lista blanca y pagina.
func (s *GroupService) ListGroups(
	ctx context.Context,
	filters map[string]string,
	page sharedQuery.PageRequest,
	sort sharedQuery.SortSpec,
) (*sharedQuery.Page[*groupDomain.Group], error) {
	criteria := groupDomain.CriteriaFromFilters(filters)

	result, err := sharedQuery.Paginate[*groupDomain.Group](ctx, s.repo, criteria, page, sort, groupDomain.SortFields)
	if err != nil {
		if errors.Is(err, sharedDomain.ErrStoreFailure) {
			s.log.Error("Failed to list groups", zap.Error(err))
		}
		return nil, err
	}
	return result, nil
}

// CreateGroup comprueba que el id no exista y persiste el grupo junto a su
// evento de outbox.
//
// La comprobación y la inserción no son atómicas: dos altas concurrentes del
// mismo id pueden pasar ambas la consulta. En ese caso es la restricción de
// unicidad del store la que rechaza la segunda, y el repositorio la reporta
// igualmente como ErrDuplicateIdentity.
func (s *GroupService) CreateGroup(ctx context.Context, id, name, groupType string) (*groupDomain.Group, error) {
	if id == "" {
		return nil, groupDomain.ErrMissingIdentity
	}

	existing, err := s.repo.CountByCriteria(ctx, groupDomain.IDCriteria{ID: id})
	if err != nil {
		s.log.Error("Failed to check group existence", zap.String("group_id", id), zap.Error(err))
		return nil, sharedDomain.StoreFailure(err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: a group with id '%s' already exists", groupDomain.ErrDuplicateIdentity, id)
	}

	group := &groupDomain.Group{
		ID:   id,
		Name: name,
		Type: groupType,
	}

	outboxEvent := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: groupDomain.AggregateType,
		AggregateID:   group.ID,
		EventType:     groupDomain.GroupCreated,
		Payload: sharedEvents.GroupCreated{
			ID:   group.ID,
			Name: group.Name,
			Type: group.Type,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, group, outboxEvent); err != nil {
		if errors.Is(err, groupDomain.ErrDuplicateIdentity) {
			s.log.Warn("Concurrent group creation rejected by store", zap.String("group_id", id))
			return nil, err
		}
		s.log.Error("Failed to create group", zap.String("group_id", id), zap.Error(err))
		return nil, sharedDomain.StoreFailure(err)
	}

	s.log.Info("Group created", zap.String("group_id", id))
	sharedCache.AsyncCacheSet(s.cache, groupDomain.CacheKeyByID(group.ID), group, groupCacheTTL, s.log)

	return group, nil
}

// GetGroup obtiene un grupo, primero desde la caché.
func (s *GroupService) GetGroup(ctx context.Context, id string) (*groupDomain.Group, error) {
	// 1. Intentar cache
	if s.cache != nil {
		var g groupDomain.Group
		if hit, _ := s.cache.Get(ctx, groupDomain.CacheKeyByID(id), &g); hit {
			return &g, nil
		}
	}

	// 2. Ir al repo
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, groupDomain.ErrGroupNotFound) {
			return nil, err
		}
		s.log.Error("Failed to fetch group", zap.String("group_id", id), zap.Error(err))
		return nil, sharedDomain.StoreFailure(err)
	}

	// 3. Actualizar cache en background sin bloquear la respuesta
	sharedCache.AsyncCacheSet(s.cache, groupDomain.CacheKeyByID(group.ID), group, groupCacheTTL, s.log)

	return group, nil
}

// AddMember añade userID a los miembros del grupo. Es idempotente.
func (s *GroupService) AddMember(ctx context.Context, groupID, userID string) error {
	if groupID == "" || userID == "" {
		return fmt.Errorf("%w: group id and user id are required", sharedDomain.ErrInvalidInput)
	}
	if err := s.repo.AddMember(ctx, groupID, userID); err != nil {
		return s.mutationError("add member", groupID, err)
	}
	s.log.Info("Member added", zap.String("group_id", groupID), zap.String("user_id", userID))
	return nil
}

// RemoveMember quita userID de los miembros del grupo.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, userID string) error {
	if groupID == "" || userID == "" {
		return fmt.Errorf("%w: group id and user id are required", sharedDomain.ErrInvalidInput)
	}
	if err := s.repo.RemoveMember(ctx, groupID, userID); err != nil {
		return s.mutationError("remove member", groupID, err)
	}
	s.log.Info("Member removed", zap.String("group_id", groupID), zap.String("user_id", userID))
	return nil
}

// GrantStarter marca el grupo como iniciador candidato de la definición de proceso.
func (s *GroupService) GrantStarter(ctx context.Context, processDefinitionID, groupID string) error {
	if processDefinitionID == "" || groupID == "" {
		return fmt.Errorf("%w: process definition id and group id are required", sharedDomain.ErrInvalidInput)
	}
	if err := s.repo.AddStarter(ctx, processDefinitionID, groupID); err != nil {
		return s.mutationError("grant starter", groupID, err)
	}
	s.log.Info("Starter granted",
		zap.String("group_id", groupID),
		zap.String("process_definition_id", processDefinitionID),
	)
	return nil
}

func (s *GroupService) mutationError(op, groupID string, err error) error {
	if errors.Is(err, groupDomain.ErrGroupNotFound) {
		return err
	}
	s.log.Error("Failed to "+op, zap.String("group_id", groupID), zap.Error(err))
	return sharedDomain.StoreFailure(err)
}
