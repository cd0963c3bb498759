package bitmap_test

import (
	"testing"

	tfserrors "github.com/tinyfs-go/tinyfs/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinyfs-go/tinyfs/bitmap"
	"github.com/tinyfs-go/tinyfs/block"
)

func TestFormat_AllFree(t *testing.T) {
	dev := block.New(64, 4)
	m, err := bitmap.Format(dev, 1, 0, 16)
	require.NoError(t, err)

	for i := 0; i < 16; i++ {
		assert.False(t, m.Get(i))
	}
}

func TestAllocate_FirstFit(t *testing.T) {
	dev := block.New(64, 4)
	m, err := bitmap.Format(dev, 1, 0, 4)
	require.NoError(t, err)

	first, err := m.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 0, first)

	second, err := m.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 1, second)
}

func TestAllocate_StartsFromStartIndex(t *testing.T) {
	dev := block.New(64, 8)
	m, err := bitmap.Format(dev, 2, 3, 8)
	require.NoError(t, err)

	i, err := m.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 3, i)
	assert.False(t, m.Get(0))
	assert.False(t, m.Get(1))
	assert.False(t, m.Get(2))
}

func TestAllocate_NoSpace(t *testing.T) {
	dev := block.New(64, 4)
	m, err := bitmap.Format(dev, 1, 0, 2)
	require.NoError(t, err)

	_, err = m.Allocate()
	require.NoError(t, err)
	_, err = m.Allocate()
	require.NoError(t, err)

	_, err = m.Allocate()
	assert.ErrorIs(t, err, tfserrors.ErrNoSpace)
}

func TestFree_IsIdempotentAndOutOfRangeSafe(t *testing.T) {
	dev := block.New(64, 4)
	m, err := bitmap.Format(dev, 1, 0, 4)
	require.NoError(t, err)

	i, err := m.Allocate()
	require.NoError(t, err)

	require.NoError(t, m.Free(i))
	assert.False(t, m.Get(i))
	require.NoError(t, m.Free(i)) // idempotent
	require.NoError(t, m.Free(-1))
	require.NoError(t, m.Free(1000))
}

func TestLoad_RehydratesFromDisk(t *testing.T) {
	dev := block.New(64, 4)
	m, err := bitmap.Format(dev, 1, 0, 8)
	require.NoError(t, err)

	require.NoError(t, m.Free(0)) // no-op, already free
	allocated, err := m.Allocate()
	require.NoError(t, err)

	reloaded, err := bitmap.Load(dev, 1, 0, 8)
	require.NoError(t, err)
	assert.True(t, reloaded.Get(allocated))
	for i := 0; i < 8; i++ {
		if i != allocated {
			assert.False(t, reloaded.Get(i))
		}
	}
}
