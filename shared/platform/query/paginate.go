package query

import (
	"context"

	sharedDomain "github.com/vskolike/groupdir/shared/domain"
)

// Source es lo mínimo que necesita Paginate de un repositorio.
type Source[T any] interface {
	ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination OffsetPagination, sort Sort) ([]T, error)
	CountByCriteria(ctx context.Context, criteria sharedDomain.Criteria) (int64, error)
}

// Paginate ejecuta una página y, por separado, el total de coincidencias.
//
// Las dos lecturas no comparten snapshot: una inserción o borrado concurrente
// entre ambas puede dejar Total desalineado con lo que devolvería un segundo
// listado. No se reintenta nada; cualquier fallo del store se devuelve como
// ErrStoreFailure.
func Paginate[T any](
	ctx context.Context,
	src Source[T],
	criteria sharedDomain.Criteria,
	req PageRequest,
	sortSpec SortSpec,
	registry *SortRegistry,
) (*Page[T], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 1. Orden: clave pedida (validada) o la de por defecto si no se envió
	key := sortSpec.Key
	if key == "" && !sortSpec.Set {
		key = registry.DefaultKey()
	}
	field, err := registry.Resolve(key)
	if err != nil {
		return nil, err
	}
	order, err := ParseDirection(string(sortSpec.Order))
	if err != nil {
		return nil, err
	}

	// 2. Página
	items, err := src.ListByCriteria(ctx, criteria,
		OffsetPagination{Limit: req.Size, Offset: req.Start},
		Sort{Field: field, Desc: order == Desc},
	)
	if err != nil {
		return nil, sharedDomain.StoreFailure(err)
	}

	// 3. Total, ignorando ventana y orden
	total, err := src.CountByCriteria(ctx, criteria)
	if err != nil {
		return nil, sharedDomain.StoreFailure(err)
	}

	if items == nil {
		items = []T{}
	}

	return &Page[T]{
		Data:  items,
		Total: total,
		Start: req.Start,
		Sort:  key,
		Order: string(order),
		Size:  len(items),
	}, nil
}
