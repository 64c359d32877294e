package domain

import (
	sharedDomain "github.com/vskolike/groupdir/shared/domain"
)

// Atributos neutrales que entienden los repositorios de grupos.
const (
	FieldID               = "id"
	FieldName             = "name"
	FieldType             = "type"
	FieldMember           = "member"
	FieldPotentialStarter = "potential_starter"
)

// ---------------- Implementaciones concretas ----------------

// Filtrado por ID exacto
type IDCriteria struct {
	ID string
}

func (c IDCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: FieldID, Op: sharedDomain.OpEq, Value: c.ID}}
}

// Filtrado por nombre exacto
type NameCriteria struct {
	Name string
}

func (c NameCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: FieldName, Op: sharedDomain.OpEq, Value: c.Name}}
}

// NameLikeCriteria usa '%' como comodín; el patrón se pasa tal cual, sin
// añadir comodines implícitos.
type NameLikeCriteria struct {
	Pattern string
}

func (c NameLikeCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: FieldName, Op: sharedDomain.OpLike, Value: c.Pattern}}
}

// Filtrado por tipo exacto
type TypeCriteria struct {
	Type string
}

func (c TypeCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: FieldType, Op: sharedDomain.OpEq, Value: c.Type}}
}

// MemberCriteria restringe a grupos que contienen al usuario.
type MemberCriteria struct {
	UserID string
}

func (c MemberCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: FieldMember, Op: sharedDomain.OpHas, Value: c.UserID}}
}

// PotentialStarterCriteria restringe a grupos enlazados como iniciadores
// candidatos de la definición de proceso.
type PotentialStarterCriteria struct {
	ProcessDefinitionID string
}

func (c PotentialStarterCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: FieldPotentialStarter, Op: sharedDomain.OpHas, Value: c.ProcessDefinitionID}}
}
