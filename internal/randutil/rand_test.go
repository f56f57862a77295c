package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	t.Parallel()

	a, b := New(42), New(42)
	for range 16 {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
	assert.NotEqual(t, New(1).Uint64(), New(2).Uint64())
}

func TestNewSecureDiffers(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, NewSecure().Uint64(), NewSecure().Uint64())
}
