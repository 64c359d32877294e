package domain

import (
	"regexp"
	"strings"
)

// ---------------- Operadores ----------------

type Operator string

const (
	OpEq   Operator = "="
	OpLike Operator = "LIKE"
	// OpHas restringe a entidades cuya relación (Field) contiene Value.
	// Cada adapter decide cómo resolver la relación (subquery, array, etc.).
	OpHas Operator = "HAS"
)

type LogicalOperator string

const (
	OpAnd LogicalOperator = "AND"
)

// ---------------- Criterion ----------------

// Criterion describe una condición neutral de filtrado
type Criterion struct {
	Field string
	Op    Operator
	Value interface{}
}

// ---------------- Criteria interface ----------------

// Criteria permite transformar filtros a condiciones neutrales
type Criteria interface {
	ToConditions() []Criterion
}

// ---------------- Composite Criteria ----------------

// CompositeCriteria solo soporta conjunción: las condiciones resultantes se
// combinan siempre con AND en los adapters.
type CompositeCriteria struct {
	Operator  LogicalOperator
	Criterias []Criteria
}

func (c CompositeCriteria) ToConditions() []Criterion {
	var all []Criterion
	for _, crit := range c.Criterias {
		if crit == nil {
			continue
		}
		all = append(all, crit.ToConditions()...)
	}
	return all
}

// ---------------- Helpers ----------------

// And crea un CompositeCriteria con operador AND
func And(criterias ...Criteria) CompositeCriteria {
	return CompositeCriteria{Operator: OpAnd, Criterias: criterias}
}

// Conditions devuelve las condiciones de criteria, tolerando nil.
func Conditions(criteria Criteria) []Criterion {
	if criteria == nil {
		return nil
	}
	return criteria.ToConditions()
}

// ---------------- Patrones LIKE ----------------

// EscapeLike escapa '\' y '_' para usar el patrón con `LIKE ? ESCAPE '\'`.
// '%' se mantiene como único comodín.
func EscapeLike(pattern string) string {
	r := strings.NewReplacer(`\`, `\\`, `_`, `\_`)
	return r.Replace(pattern)
}

// LikeToRegexp traduce un patrón con '%' como comodín a una regex anclada.
// El resto de caracteres se interpretan literalmente.
func LikeToRegexp(pattern string) string {
	parts := strings.Split(pattern, "%")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return "^" + strings.Join(parts, ".*") + "$"
}
