package fs_test

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinyfs-go/tinyfs/fs"
	"github.com/tinyfs-go/tinyfs/layout"
)

func TestCheck_CleanFilesystemHasNoViolations(t *testing.T) {
	f, _ := bootScratch(t)
	require.NoError(t, f.Create("clean.txt"))
	fd, err := f.Open("clean.txt")
	require.NoError(t, err)
	_, err = f.Write(fd, []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Close(fd))

	assert.NoError(t, f.Check())
}

func TestCheck_AfterDeleteStillClean(t *testing.T) {
	f, _ := bootScratch(t)
	require.NoError(t, f.Create("gone.txt"))
	require.NoError(t, f.Delete("gone.txt"))

	assert.NoError(t, f.Check())
}

func TestCheck_DetectsNothingOnFreshFormat(t *testing.T) {
	f, _ := bootScratch(t)
	assert.NoError(t, f.Check())
}

// writeByteAt pokes a single byte directly into the on-disk image,
// simulating corruption that couldn't happen through the public API.
func writeByteAt(t *testing.T, path string, offset int64, b byte) {
	t.Helper()
	file, err := os.OpenFile(path, os.O_RDWR, 0o600)
	require.NoError(t, err)
	defer file.Close()
	_, err = file.WriteAt([]byte{b}, offset)
	require.NoError(t, err)
}

// Hand-marking an unallocated data block as used in the on-disk bitmap,
// and an unallocated inode as used in the inode bitmap, must surface as
// a leaked-block violation and a bitmap/filename mismatch respectively,
// both aggregated into the same Check() error.
func TestCheck_DetectsLeakedBlockAndBitmapMismatch(t *testing.T) {
	f, path := bootScratch(t)
	require.NoError(t, f.Sync())
	params := f.Params()

	leakedBlockOffset := int64(layout.DataBitmapIndex)*int64(params.BlockSize) +
		int64(params.DataBlockStart)*4
	writeByteAt(t, path, leakedBlockOffset, 1)

	mismatchedInodeOffset := int64(layout.InodeBitmapIndex) * int64(params.BlockSize)
	writeByteAt(t, path, mismatchedInodeOffset, 1)

	reloaded, err := fs.Boot(path, params, nil)
	require.NoError(t, err)

	checkErr := reloaded.Check()
	require.Error(t, checkErr)
	assert.Contains(t, checkErr.Error(), "leaked")
	assert.Contains(t, checkErr.Error(), "bitmap marks it used")
}

// Hand-editing a second file's first data pointer to collide with a
// first file's already-allocated block must surface as a shared-block
// violation.
func TestCheck_DetectsSharedDataBlock(t *testing.T) {
	f, path := bootScratch(t)
	require.NoError(t, f.Create("first.txt"))
	fd1, err := f.Open("first.txt")
	require.NoError(t, err)
	_, err = f.Write(fd1, []byte("a"))
	require.NoError(t, err)
	require.NoError(t, f.Close(fd1))

	require.NoError(t, f.Create("second.txt"))
	fd2, err := f.Open("second.txt")
	require.NoError(t, err)
	_, err = f.Write(fd2, []byte("b"))
	require.NoError(t, err)
	require.NoError(t, f.Close(fd2))

	require.NoError(t, f.Sync())
	params := f.Params()

	// "first.txt" is inode 0, allocated the first free data block;
	// "second.txt" is inode 1, allocated the next one.
	firstBlock := params.DataBlockStart

	secondInodeBlock, secondInodeOffset := params.BlockOf(1)
	pointerOffset := secondInodeOffset + params.MaxFilenameLength + 4
	absoluteOffset := int64(secondInodeBlock)*int64(params.BlockSize) + int64(pointerOffset)

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(firstBlock))
	file, err := os.OpenFile(path, os.O_RDWR, 0o600)
	require.NoError(t, err)
	_, err = file.WriteAt(buf[:], absoluteOffset)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	reloaded, err := fs.Boot(path, params, nil)
	require.NoError(t, err)

	checkErr := reloaded.Check()
	require.Error(t, checkErr)
	assert.Contains(t, checkErr.Error(), "referenced by")
	assert.Contains(t, checkErr.Error(), "simultaneously")
}
