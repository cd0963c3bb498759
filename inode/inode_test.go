package inode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinyfs-go/tinyfs/block"
	"github.com/tinyfs-go/tinyfs/inode"
	"github.com/tinyfs-go/tinyfs/layout"
)

func TestEmpty_AllPointersUnallocated(t *testing.T) {
	ino := inode.Empty(5)
	assert.False(t, ino.IsLive())
	for _, p := range ino.DataBlocks {
		assert.Equal(t, inode.Unallocated, p)
	}
}

func TestEncodeDecode_RoundTrips(t *testing.T) {
	params := layout.DefaultParams()
	ino := inode.Inode{
		Filename:   "alpha.txt",
		Size:       12,
		DataBlocks: []int32{10, 11, -1, -1, -1},
	}

	buf := make([]byte, params.InodeRecordSize())
	require.NoError(t, inode.Encode(ino, buf, params))

	decoded, err := inode.Decode(buf, params)
	require.NoError(t, err)
	assert.Equal(t, ino.Filename, decoded.Filename)
	assert.Equal(t, ino.Size, decoded.Size)
	assert.Equal(t, ino.DataBlocks, decoded.DataBlocks)
}

func TestEncode_TruncatesLongFilename(t *testing.T) {
	params := layout.DefaultParams()
	longName := make([]byte, params.MaxFilenameLength*2)
	for i := range longName {
		longName[i] = 'a'
	}

	ino := inode.Inode{Filename: string(longName), DataBlocks: make([]int32, params.NumDirectPointers)}
	buf := make([]byte, params.InodeRecordSize())
	require.NoError(t, inode.Encode(ino, buf, params))

	decoded, err := inode.Decode(buf, params)
	require.NoError(t, err)
	assert.Len(t, decoded.Filename, params.MaxFilenameLength-1)
}

func TestTable_ReadWriteRoundTrips(t *testing.T) {
	params := layout.DefaultParams()
	dev := block.New(params.BlockSize, params.NumBlocks)
	require.NoError(t, inode.FormatRegion(dev, params))

	table := inode.NewTable(dev, params)

	ino := inode.Inode{Filename: "beta.txt", Size: 4, DataBlocks: []int32{7, -1, -1, -1, -1}}
	require.NoError(t, table.Write(3, ino))

	got, err := table.Read(3)
	require.NoError(t, err)
	assert.Equal(t, ino.Filename, got.Filename)
	assert.Equal(t, ino.Size, got.Size)
	assert.Equal(t, ino.DataBlocks, got.DataBlocks)
}

func TestTable_WriteIsReadModifyWrite(t *testing.T) {
	// Two inodes packed into the same block must not clobber each other.
	params := layout.DefaultParams()
	require.Greater(t, params.InodesPerBlock, 1, "test requires >1 inode per block")

	dev := block.New(params.BlockSize, params.NumBlocks)
	require.NoError(t, inode.FormatRegion(dev, params))
	table := inode.NewTable(dev, params)

	require.NoError(t, table.Write(0, inode.Inode{Filename: "a", DataBlocks: make([]int32, params.NumDirectPointers)}))
	require.NoError(t, table.Write(1, inode.Inode{Filename: "b", DataBlocks: make([]int32, params.NumDirectPointers)}))

	a, err := table.Read(0)
	require.NoError(t, err)
	b, err := table.Read(1)
	require.NoError(t, err)
	assert.Equal(t, "a", a.Filename)
	assert.Equal(t, "b", b.Filename)
}
