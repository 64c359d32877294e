// Package sqlcommon traduce criterios neutrales de grupos a SQL. Lo comparten
// los adapters SQLite y Postgres, que solo difieren en los placeholders.
package sqlcommon

import (
	"fmt"
	"strings"

	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
	sharedDomain "github.com/vskolike/groupdir/shared/domain"
	sharedQuery "github.com/vskolike/groupdir/shared/platform/query"
	sharedUtils "github.com/vskolike/groupdir/shared/utils"
)

// Placeholder devuelve el marcador del n-ésimo argumento (empezando en 1).
type Placeholder func(n int) string

// Question es el estilo de SQLite / MySQL.
func Question(int) string { return "?" }

// Dollar es el estilo de Postgres.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

const GroupColumns = "id, name, type"

var columns = map[string]string{
	groupDomain.FieldID:   "id",
	groupDomain.FieldName: "name",
	groupDomain.FieldType: "type",
}

// Where devuelve la cláusula (sin "WHERE") y sus argumentos. Las condiciones
// se combinan con AND; sin condiciones devuelve "".
func Where(criteria sharedDomain.Criteria, ph Placeholder) (string, []interface{}, error) {
	var clauses []string
	var args []interface{}

	for _, c := range sharedDomain.Conditions(criteria) {
		n := len(args) + 1
		switch {
		case c.Op == sharedDomain.OpHas && c.Field == groupDomain.FieldMember:
			clauses = append(clauses, fmt.Sprintf("id IN (SELECT group_id FROM memberships WHERE user_id = %s)", ph(n)))
			args = append(args, c.Value)
		case c.Op == sharedDomain.OpHas && c.Field == groupDomain.FieldPotentialStarter:
			clauses = append(clauses, fmt.Sprintf("id IN (SELECT group_id FROM starter_links WHERE process_definition_id = %s)", ph(n)))
			args = append(args, c.Value)
		case c.Op == sharedDomain.OpLike:
			col, ok := columns[c.Field]
			if !ok {
				return "", nil, fmt.Errorf("unsupported criterion field %q", c.Field)
			}
			pattern, _ := c.Value.(string)
			clauses = append(clauses, fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, col, ph(n)))
			args = append(args, sharedDomain.EscapeLike(pattern))
		case c.Op == sharedDomain.OpHas:
			return "", nil, fmt.Errorf("unsupported relation %q", c.Field)
		default:
			col, ok := columns[c.Field]
			if !ok {
				return "", nil, fmt.Errorf("unsupported criterion field %q", c.Field)
			}
			clauses = append(clauses, fmt.Sprintf("%s %s %s", col, c.Op, ph(n)))
			args = append(args, c.Value)
		}
	}

	return strings.Join(clauses, " AND "), args, nil
}

// OrderBy traduce sort a "col DIR[, id DIR]". El desempate por id mantiene
// la paginación determinista cuando la columna no es única.
func OrderBy(sort sharedQuery.Sort) (string, error) {
	col, ok := columns[sort.Field]
	if !ok {
		return "", fmt.Errorf("unsupported sort field %q", sort.Field)
	}
	dir := sharedUtils.Ternary(sort.Desc, "DESC", "ASC")
	if col == "id" {
		return "id " + dir, nil
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir), nil
}

// SelectPage arma el SELECT de una página con LIMIT/OFFSET al final.
func SelectPage(criteria sharedDomain.Criteria, pagination sharedQuery.OffsetPagination, sort sharedQuery.Sort, ph Placeholder) (string, []interface{}, error) {
	where, args, err := Where(criteria, ph)
	if err != nil {
		return "", nil, err
	}
	orderBy, err := OrderBy(sort)
	if err != nil {
		return "", nil, err
	}

	query := "SELECT " + GroupColumns + " FROM identity_groups"
	if where != "" {
		query += " WHERE " + where
	}
	args = append(args, pagination.Limit, pagination.Offset)
	query += fmt.Sprintf(" ORDER BY %s LIMIT %s OFFSET %s", orderBy, ph(len(args)-1), ph(len(args)))
	return query, args, nil
}

// SelectCount arma el COUNT(*) del mismo predicado, sin orden ni ventana.
func SelectCount(criteria sharedDomain.Criteria, ph Placeholder) (string, []interface{}, error) {
	where, args, err := Where(criteria, ph)
	if err != nil {
		return "", nil, err
	}
	query := "SELECT COUNT(*) FROM identity_groups"
	if where != "" {
		query += " WHERE " + where
	}
	return query, args, nil
}
