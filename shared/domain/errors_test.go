package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreFailure(t *testing.T) {
	cause := errors.New("disk full")

	err := StoreFailure(cause)
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.ErrorIs(t, err, cause)

	// no se envuelve dos veces
	assert.Equal(t, err, StoreFailure(err))
	assert.Nil(t, StoreFailure(nil))
}
