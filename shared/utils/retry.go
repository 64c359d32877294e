package utils

import (
	"context"
	"time"
)

// Retry llama a fn hasta attempts veces, esperando delay entre intentos.
// Devuelve el último error, o el del contexto si se cancela durante la espera.
// Tras el último intento no se espera.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
