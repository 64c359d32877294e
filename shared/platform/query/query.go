package query

import (
	"fmt"
	"strings"

	sharedDomain "github.com/vskolike/groupdir/shared/domain"
)

// ---------- Tipos de filtrado / paginación / ordenamiento ----------

const (
	// DefaultPageSize se aplica cuando el cliente no envía size.
	DefaultPageSize = 10
	// MaxPageSize es el tamaño máximo de página aceptado.
	MaxPageSize = 1000
)

var (
	ErrInvalidPage      = fmt.Errorf("%w: invalid page request", sharedDomain.ErrInvalidInput)
	ErrInvalidOrder     = fmt.Errorf("%w: invalid sort order", sharedDomain.ErrInvalidInput)
	ErrUnknownSortField = fmt.Errorf("%w: unknown sort field", sharedDomain.ErrInvalidInput)
)

// OffsetPagination es la ventana que reciben los repositorios.
type OffsetPagination struct {
	Limit  int
	Offset int
}

// Sort indica atributo interno y dirección. Field ya viene resuelto por un
// SortRegistry, los repositorios no lo validan.
type Sort struct {
	Field string
	Desc  bool
}

// PageRequest es la paginación pedida por el cliente.
type PageRequest struct {
	Start int
	Size  int
}

// Validate rechaza start negativo y size fuera de (0, MaxPageSize].
func (p PageRequest) Validate() error {
	if p.Start < 0 {
		return fmt.Errorf("%w: start must be >= 0, got %d", ErrInvalidPage, p.Start)
	}
	if p.Size <= 0 || p.Size > MaxPageSize {
		return fmt.Errorf("%w: size must be between 1 and %d, got %d", ErrInvalidPage, MaxPageSize, p.Size)
	}
	return nil
}

// Direction es el sentido de ordenamiento público ("asc" / "desc").
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection acepta "", "asc" o "desc" (sin distinguir mayúsculas).
// El valor vacío equivale a Asc.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(raw) {
	case "", string(Asc):
		return Asc, nil
	case string(Desc):
		return Desc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOrder, raw)
}

// SortSpec es el ordenamiento pedido por el cliente: clave pública + dirección.
// Key vacía con Set a false significa "orden por defecto". Set indica que el
// cliente envió el parámetro; si lo envió vacío, la clave se rechaza.
type SortSpec struct {
	Key   string
	Set   bool
	Order Direction
}

// Page es el sobre de resultados de un listado paginado.
type Page[T any] struct {
	Data  []T    `json:"data"`
	Total int64  `json:"total"`
	Start int    `json:"start"`
	Sort  string `json:"sort"`
	Order string `json:"order"`
	Size  int    `json:"size"`
}
