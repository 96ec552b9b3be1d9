package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-rig/pkg/math"
)

func TestNewArray(t *testing.T) {
	a, err := NewArray(3)
	require.NoError(t, err)
	assert.Equal(t, 4, a.Len())
	assert.Equal(t, 3, a.HighIndex())

	m, err := a.Get(2)
	require.NoError(t, err)
	assert.Equal(t, math.Identity(), m)

	_, err = NewArray(-1)
	assert.True(t, errors.Is(err, ErrCapacity))
}

func TestArraySetStoresTranspose(t *testing.T) {
	a, err := NewArray(1)
	require.NoError(t, err)

	m := math.Translate(1, 2, 3)
	require.NoError(t, a.Set(1, m))

	got, err := a.Get(1)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	tr, err := a.GetTransposed(1)
	require.NoError(t, err)
	assert.Equal(t, m.Transpose(), tr)
}

func TestArrayBounds(t *testing.T) {
	a, err := NewArray(2)
	require.NoError(t, err)

	for _, idx := range []int{-1, 3, 100} {
		err := a.Set(idx, math.Identity())
		var capErr *CapacityError
		require.True(t, errors.As(err, &capErr), "index %d: expected CapacityError, got %v", idx, err)
		assert.Equal(t, idx, capErr.Index)
		assert.Equal(t, 2, capErr.Limit)
		assert.True(t, errors.Is(err, ErrCapacity))

		_, err = a.Get(idx)
		assert.Error(t, err)
		_, err = a.GetTransposed(idx)
		assert.Error(t, err)
	}
}

func TestArrayTransform(t *testing.T) {
	a, err := NewArray(1)
	require.NoError(t, err)
	require.NoError(t, a.Set(1, math.Translate(0, 5, 0)))

	p, err := a.Transform(math.V3(1, 1, 1), 1)
	require.NoError(t, err)
	assert.Equal(t, math.V3(1, 6, 1), p)

	p, err = a.Transform(math.V3(1, 1, 1), 0)
	require.NoError(t, err)
	assert.Equal(t, math.V3(1, 1, 1), p)
}

func TestArrayCopyFrom(t *testing.T) {
	src, _ := NewArray(2)
	dst, _ := NewArray(2)
	require.NoError(t, src.Set(2, math.Scale(2, 2, 2)))
	require.NoError(t, dst.CopyFrom(src))

	m, _ := dst.Get(2)
	assert.Equal(t, math.Scale(2, 2, 2), m)

	short, _ := NewArray(0)
	assert.True(t, errors.Is(short.CopyFrom(src), ErrCapacity))
}
