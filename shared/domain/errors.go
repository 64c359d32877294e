package domain

import (
	"errors"
	"fmt"
)

// ---------- Errores transversales ----------
var (
	// ErrInvalidInput agrupa todos los errores de cliente (400).
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreFailure indica un fallo del almacenamiento subyacente (500).
	ErrStoreFailure = errors.New("store failure")
)

// StoreFailure envuelve err como ErrStoreFailure conservando la causa original.
func StoreFailure(err error) error {
	if err == nil || errors.Is(err, ErrStoreFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreFailure, err)
}
