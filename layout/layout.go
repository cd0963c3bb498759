// Package layout derives TinyFS's on-disk block layout from a small set
// of configuration parameters, and owns the superblock's magic number.
package layout

import (
	"fmt"

	tfserrors "github.com/tinyfs-go/tinyfs/errors"
)

// MagicNumber identifies a formatted TinyFS image. It occupies the first
// 4 bytes of block 0.
const MagicNumber uint32 = 0x12345678

// Fixed block roles, independent of Params.
const (
	SuperblockIndex = 0
	InodeBitmapIndex = 1
	DataBitmapIndex = 2
	// InodeTableStart is the index of the first inode-table block. It is
	// fixed at 3 because blocks 0-2 are always superblock/inode
	// bitmap/data bitmap.
	InodeTableStart = 3
)

// inodeDiskSize is the encoded on-disk size of a single inode record.
// It mirrors the record format written by inode.Encode; it lives here (as
// a function of Params) to avoid an import cycle between layout and inode.
func inodeDiskSize(maxFilenameLength, numDirectPointers int) int {
	// filename bytes + 4-byte size + 4 bytes per direct pointer.
	return maxFilenameLength + 4 + 4*numDirectPointers
}

// Params holds TinyFS's compile-time parameters as runtime
// configuration, along with the layout values derived from them at
// construction time.
type Params struct {
	BlockSize           int
	NumBlocks           int
	MaxFiles            int
	MaxFilenameLength   int
	NumDirectPointers   int
	OpenFileTableSize   int
	FDOffset            int

	// Derived.
	InodesPerBlock   int
	InodeTableBlocks int
	DataBlockStart   int
}

// DefaultParams returns a small configuration suitable for tests and
// scratch images: big enough for multi-block files, small enough to
// exercise every code path quickly.
func DefaultParams() Params {
	p, err := NewParams(128, 32, 16, 12, 5, 5, 3)
	if err != nil {
		// DefaultParams is exercised by the fs and inode tests; if it
		// doesn't validate, that's a programming error in this package.
		panic(err)
	}
	return p
}

// NewParams validates and derives a full Params from the raw
// configuration values.
func NewParams(
	blockSize, numBlocks, maxFiles, maxFilenameLength, numDirectPointers,
	openFileTableSize, fdOffset int,
) (Params, error) {
	if blockSize <= 0 || blockSize&(blockSize-1) != 0 {
		return Params{}, tfserrors.ErrDiskError.WithMessage(
			fmt.Sprintf("block size %d is not a positive power of two", blockSize),
		)
	}
	if numBlocks <= 0 {
		return Params{}, tfserrors.ErrDiskError.WithMessage("num blocks must be positive")
	}
	if maxFiles <= 0 {
		return Params{}, tfserrors.ErrDiskError.WithMessage("max files must be positive")
	}
	if maxFilenameLength < 2 {
		return Params{}, tfserrors.ErrDiskError.WithMessage(
			"max filename length must allow at least one character plus NUL",
		)
	}
	if numDirectPointers <= 0 {
		return Params{}, tfserrors.ErrDiskError.WithMessage("num direct pointers must be positive")
	}
	if openFileTableSize <= 0 {
		return Params{}, tfserrors.ErrDiskError.WithMessage("open file table size must be positive")
	}

	recordSize := inodeDiskSize(maxFilenameLength, numDirectPointers)
	inodesPerBlock := blockSize / recordSize
	if inodesPerBlock < 1 {
		return Params{}, tfserrors.ErrDiskError.WithMessage(
			fmt.Sprintf(
				"block size %d is too small to hold even one inode record (%d bytes)",
				blockSize, recordSize,
			),
		)
	}

	inodeTableBlocks := (maxFiles + inodesPerBlock - 1) / inodesPerBlock
	dataBlockStart := InodeTableStart + inodeTableBlocks

	if dataBlockStart >= numBlocks {
		return Params{}, tfserrors.ErrDiskError.WithMessage(
			fmt.Sprintf(
				"layout leaves no room for data blocks: inode table occupies blocks"+
					" [%d, %d) but device only has %d blocks",
				InodeTableStart, dataBlockStart, numBlocks,
			),
		)
	}

	return Params{
		BlockSize:         blockSize,
		NumBlocks:         numBlocks,
		MaxFiles:          maxFiles,
		MaxFilenameLength: maxFilenameLength,
		NumDirectPointers: numDirectPointers,
		OpenFileTableSize: openFileTableSize,
		FDOffset:          fdOffset,
		InodesPerBlock:    inodesPerBlock,
		InodeTableBlocks:  inodeTableBlocks,
		DataBlockStart:    dataBlockStart,
	}, nil
}

// MaxFileSize returns the largest size (bytes) a file can reach given
// the number of direct pointers and block size.
func (p Params) MaxFileSize() int {
	return p.NumDirectPointers * p.BlockSize
}

// InodeRecordSize returns the encoded on-disk size of one inode record.
func (p Params) InodeRecordSize() int {
	return inodeDiskSize(p.MaxFilenameLength, p.NumDirectPointers)
}

// BlockOf returns the inode-table block and byte offset within that
// block for inode index i.
func (p Params) BlockOf(inodeIndex int) (block int, offset int) {
	block = InodeTableStart + inodeIndex/p.InodesPerBlock
	offset = (inodeIndex % p.InodesPerBlock) * p.InodeRecordSize()
	return
}
