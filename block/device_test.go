package block_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinyfs-go/tinyfs/block"
)

func TestNew_IsZeroed(t *testing.T) {
	dev := block.New(16, 4)
	buf := make([]byte, 16)
	require.NoError(t, dev.Read(0, buf))
	assert.Equal(t, make([]byte, 16), buf)
}

func TestWriteThenRead_RoundTrips(t *testing.T) {
	dev := block.New(16, 4)
	in := []byte("0123456789abcdef")
	require.NoError(t, dev.Write(2, in))

	out := make([]byte, 16)
	require.NoError(t, dev.Read(2, out))
	assert.Equal(t, in, out)
}

func TestRead_OutOfRangeBlock(t *testing.T) {
	dev := block.New(16, 4)
	buf := make([]byte, 16)
	assert.Error(t, dev.Read(4, buf))
	assert.Error(t, dev.Read(-1, buf))
}

func TestWrite_NilOrMissizedBuffer(t *testing.T) {
	dev := block.New(16, 4)
	assert.Error(t, dev.Write(0, nil))
	assert.Error(t, dev.Write(0, []byte("short")))
}

func TestSaveLoad_RoundTrips(t *testing.T) {
	dev := block.New(8, 3)
	require.NoError(t, dev.Write(0, []byte("AAAAAAAA")))
	require.NoError(t, dev.Write(1, []byte("BBBBBBBB")))
	require.NoError(t, dev.Write(2, []byte("CCCCCCCC")))

	path := filepath.Join(t.TempDir(), "image.bin")
	require.NoError(t, dev.Save(path))

	loaded := block.New(8, 3)
	require.NoError(t, loaded.Load(path))

	for i, want := range []string{"AAAAAAAA", "BBBBBBBB", "CCCCCCCC"} {
		buf := make([]byte, 8)
		require.NoError(t, loaded.Read(i, buf))
		assert.Equal(t, want, string(buf))
	}
}

func TestLoad_ShortFileFails(t *testing.T) {
	dev := block.New(8, 3)
	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, dev.Write(0, []byte("AAAAAAAA")))

	// Save only one block's worth of a three-block device.
	small := block.New(8, 1)
	require.NoError(t, small.Write(0, []byte("AAAAAAAA")))
	require.NoError(t, small.Save(path))

	loaded := block.New(8, 3)
	assert.Error(t, loaded.Load(path))
}

func TestLoad_MissingFileFails(t *testing.T) {
	dev := block.New(8, 3)
	assert.Error(t, dev.Load(filepath.Join(t.TempDir(), "nope.bin")))
}
