package utils

// Ternary devuelve ifTrue o ifFalse según condition. Se usa para elegir la
// dirección de orden en los adapters de persistencia.
func Ternary[T any](condition bool, ifTrue, ifFalse T) T {
	if condition {
		return ifTrue
	}
	return ifFalse
}
