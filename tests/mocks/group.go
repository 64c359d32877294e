package mocks

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"

	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
	sharedDomain "github.com/vskolike/groupdir/shared/domain"
	sharedQuery "github.com/vskolike/groupdir/shared/platform/query"
)

// InMemoryGroupRepo simula GroupRepository con outbox incluido. Cuenta las
// llamadas para poder comprobar qué operaciones llegaron al store.
type InMemoryGroupRepo struct {
	Groups   map[string]*groupDomain.Group
	Members  map[string]map[string]bool // groupID -> userIDs
	Starters map[string]map[string]bool // groupID -> processDefinitionIDs
	Outbox   []sharedDomain.OutboxEvent

	Calls int

	// Errores forzados por operación
	ListErr   error
	CountErr  error
	CreateErr error

	mu sync.Mutex
}

var _ groupDomain.GroupRepository = (*InMemoryGroupRepo)(nil)

func NewInMemoryGroupRepo() *InMemoryGroupRepo {
	return &InMemoryGroupRepo{
		Groups:   make(map[string]*groupDomain.Group),
		Members:  make(map[string]map[string]bool),
		Starters: make(map[string]map[string]bool),
		Outbox:   []sharedDomain.OutboxEvent{},
	}
}

// Seed inserta grupos directamente, sin pasar por el outbox.
func (r *InMemoryGroupRepo) Seed(groups ...*groupDomain.Group) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range groups {
		cp := *g
		r.Groups[g.ID] = &cp
	}
}

func (r *InMemoryGroupRepo) Create(ctx context.Context, g *groupDomain.Group, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if _, ok := r.Groups[g.ID]; ok {
		return groupDomain.ErrDuplicateIdentity
	}
	cp := *g
	r.Groups[g.ID] = &cp
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryGroupRepo) GetByID(ctx context.Context, id string) (*groupDomain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	g, ok := r.Groups[id]
	if !ok {
		return nil, groupDomain.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *InMemoryGroupRepo) ListByCriteria(
	ctx context.Context,
	criteria sharedDomain.Criteria,
	pagination sharedQuery.OffsetPagination,
	s sharedQuery.Sort, // renombrado para no colisionar con package sort
) ([]*groupDomain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.ListErr != nil {
		return nil, r.ListErr
	}

	list, err := r.matching(criteria)
	if err != nil {
		return nil, err
	}

	// ordenar, con desempate por id
	key := func(g *groupDomain.Group) string {
		switch s.Field {
		case groupDomain.FieldName:
			return g.Name
		case groupDomain.FieldType:
			return g.Type
		default:
			return g.ID
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if ka, kb := key(a), key(b); ka != kb {
			if s.Desc {
				return ka > kb
			}
			return ka < kb
		}
		if s.Desc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})

	// paginación
	start := pagination.Offset
	if start > len(list) {
		return []*groupDomain.Group{}, nil
	}
	end := start + pagination.Limit
	if end > len(list) {
		end = len(list)
	}
	return list[start:end], nil
}

func (r *InMemoryGroupRepo) CountByCriteria(ctx context.Context, criteria sharedDomain.Criteria) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.CountErr != nil {
		return 0, r.CountErr
	}
	list, err := r.matching(criteria)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (r *InMemoryGroupRepo) AddMember(ctx context.Context, groupID, userID string) error {
	return r.link(r.Members, groupID, userID, true)
}

func (r *InMemoryGroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	return r.link(r.Members, groupID, userID, false)
}

func (r *InMemoryGroupRepo) AddStarter(ctx context.Context, processDefinitionID, groupID string) error {
	return r.link(r.Starters, groupID, processDefinitionID, true)
}

func (r *InMemoryGroupRepo) link(set map[string]map[string]bool, groupID, value string, add bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if _, ok := r.Groups[groupID]; !ok {
		return groupDomain.ErrGroupNotFound
	}
	if set[groupID] == nil {
		set[groupID] = make(map[string]bool)
	}
	if add {
		set[groupID][value] = true
	} else {
		delete(set[groupID], value)
	}
	return nil
}

// CallCount devuelve el número de llamadas recibidas.
func (r *InMemoryGroupRepo) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Calls
}

func (r *InMemoryGroupRepo) matching(criteria sharedDomain.Criteria) ([]*groupDomain.Group, error) {
	conds := sharedDomain.Conditions(criteria)
	list := []*groupDomain.Group{}
	for _, g := range r.Groups {
		matchesAll := true
		for _, cond := range conds {
			ok, err := r.matchCriterion(g, cond)
			if err != nil {
				return nil, err
			}
			if !ok {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			cp := *g
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *InMemoryGroupRepo) matchCriterion(g *groupDomain.Group, c sharedDomain.Criterion) (bool, error) {
	value := fmt.Sprint(c.Value)
	var field string
	switch c.Field {
	case groupDomain.FieldID:
		field = g.ID
	case groupDomain.FieldName:
		field = g.Name
	case groupDomain.FieldType:
		field = g.Type
	case groupDomain.FieldMember:
		return r.Members[g.ID][value], nil
	case groupDomain.FieldPotentialStarter:
		return r.Starters[g.ID][value], nil
	default:
		return false, fmt.Errorf("unsupported criterion field %q", c.Field)
	}

	switch c.Op {
	case sharedDomain.OpEq:
		return field == value, nil
	case sharedDomain.OpLike:
		re, err := regexp.Compile(sharedDomain.LikeToRegexp(value))
		if err != nil {
			return false, err
		}
		return re.MatchString(field), nil
	default:
		return false, fmt.Errorf("unsupported operator %q", c.Op)
	}
}
