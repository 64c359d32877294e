package cache

import (
	"context"
)

// Cache es el puerto de caché de lectura de grupos (cache-aside en GetGroup).
// Los adapters guardan JSON, así que dest recibe una copia y nunca comparte
// memoria con el valor guardado.
type Cache interface {
	// Get rellena dest (un puntero) y devuelve true en un hit. Un miss es
	// (false, nil); un error no debe impedir ir al store.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set guarda val durante ttlSecs segundos. Con ttlSecs <= 0 se usa el TTL
	// configurado en el adapter.
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	Delete(ctx context.Context, key string) error
}
