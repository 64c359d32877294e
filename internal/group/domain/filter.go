package domain

import (
	sharedDomain "github.com/vskolike/groupdir/shared/domain"
)

// Claves de filtro públicas del listado de grupos.
const (
	FilterID               = "id"
	FilterName             = "name"
	FilterNameLike         = "nameLike"
	FilterType             = "type"
	FilterMember           = "member"
	FilterPotentialStarter = "potentialStarter"
)

// filterBuilders se recorre en orden fijo para que el predicado sea estable.
var filterBuilders = []struct {
	key   string
	build func(v string) sharedDomain.Criteria
}{
	{FilterID, func(v string) sharedDomain.Criteria { return IDCriteria{ID: v} }},
	{FilterName, func(v string) sharedDomain.Criteria { return NameCriteria{Name: v} }},
	{FilterNameLike, func(v string) sharedDomain.Criteria { return NameLikeCriteria{Pattern: v} }},
	{FilterType, func(v string) sharedDomain.Criteria { return TypeCriteria{Type: v} }},
	{FilterMember, func(v string) sharedDomain.Criteria { return MemberCriteria{UserID: v} }},
	{FilterPotentialStarter, func(v string) sharedDomain.Criteria { return PotentialStarterCriteria{ProcessDefinitionID: v} }},
}

// CriteriaFromFilters traduce los filtros reconocidos a una conjunción.
// Las claves desconocidas se ignoran y un valor vacío cuenta como ausente.
// Los valores no se validan: si el store los rechaza, falla el store.
func CriteriaFromFilters(filters map[string]string) sharedDomain.CompositeCriteria {
	var criterias []sharedDomain.Criteria
	for _, fb := range filterBuilders {
		if v, ok := filters[fb.key]; ok && v != "" {
			criterias = append(criterias, fb.build(v))
		}
	}
	return sharedDomain.And(criterias...)
}
