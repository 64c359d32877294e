package query

import (
	"fmt"
	"sort"
	"strings"
)

// SortRegistry es la lista blanca de claves de ordenamiento públicas y su
// atributo interno. Se construye una vez y no se modifica después, así que
// puede compartirse entre goroutines sin sincronización.
type SortRegistry struct {
	fields     map[string]string
	defaultKey string
}

// NewSortRegistry copia fields; defaultKey debe estar entre las claves.
func NewSortRegistry(defaultKey string, fields map[string]string) (*SortRegistry, error) {
	if _, ok := fields[defaultKey]; !ok {
		return nil, fmt.Errorf("default sort key %q is not registered", defaultKey)
	}
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &SortRegistry{fields: copied, defaultKey: defaultKey}, nil
}

// MustSortRegistry es NewSortRegistry para tablas estáticas de paquete.
func MustSortRegistry(defaultKey string, fields map[string]string) *SortRegistry {
	r, err := NewSortRegistry(defaultKey, fields)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve devuelve el atributo interno de key o ErrUnknownSortField, cuyo
// mensaje lista las claves permitidas.
func (r *SortRegistry) Resolve(key string) (string, error) {
	field, ok := r.fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %q (allowed: %s)", ErrUnknownSortField, key, strings.Join(r.Keys(), ", "))
	}
	return field, nil
}

// DefaultKey es la clave usada cuando el cliente no pide orden.
func (r *SortRegistry) DefaultKey() string {
	return r.defaultKey
}

// Keys devuelve las claves públicas ordenadas.
func (r *SortRegistry) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
