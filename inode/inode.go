// Package inode implements TinyFS's inode record and inode table: a
// fixed-size on-disk record packed contiguously across the inode-table
// region, with explicit encode/decode routines rather than raw
// memory-image copies.
package inode

import (
	"encoding/binary"

	tfserrors "github.com/tinyfs-go/tinyfs/errors"
	"github.com/tinyfs-go/tinyfs/block"
	"github.com/tinyfs-go/tinyfs/layout"
	"github.com/noxer/bytewriter"
)

// Unallocated marks a direct pointer slot with no backing data block.
const Unallocated = int32(-1)

// Inode is the in-memory form of one file's metadata: its name, size,
// and direct block pointers.
type Inode struct {
	Filename   string
	Size       int32
	DataBlocks []int32
}

// Empty returns a fresh, unallocated Inode: empty name, zero size, every
// pointer set to Unallocated.
func Empty(numDirectPointers int) Inode {
	ptrs := make([]int32, numDirectPointers)
	for i := range ptrs {
		ptrs[i] = Unallocated
	}
	return Inode{DataBlocks: ptrs}
}

// IsLive reports whether this inode describes a live file: bitmap
// occupancy tracks this directly, via a non-empty filename.
func (ino Inode) IsLive() bool {
	return ino.Filename != ""
}

// Encode writes ino's on-disk representation into buf, which must be at
// least recordSize bytes (layout.Params.InodeRecordSize()):
// MaxFilenameLength filename bytes (NUL-padded), then a little-endian
// int32 size, then one little-endian int32 per direct pointer.
func Encode(ino Inode, buf []byte, params layout.Params) error {
	if len(buf) < params.InodeRecordSize() {
		return tfserrors.ErrDiskError.WithMessage("buffer too small for inode record")
	}

	w := bytewriter.New(buf)

	nameBytes := make([]byte, params.MaxFilenameLength)
	copy(nameBytes, []byte(ino.Filename))
	if len(ino.Filename) >= params.MaxFilenameLength {
		// Truncate and force a NUL terminator.
		nameBytes[params.MaxFilenameLength-1] = 0
	}
	if _, err := w.Write(nameBytes); err != nil {
		return tfserrors.ErrDiskError.WrapError(err)
	}

	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(ino.Size))
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return tfserrors.ErrDiskError.WrapError(err)
	}

	for i := 0; i < params.NumDirectPointers; i++ {
		var ptrBuf [4]byte
		var v int32 = Unallocated
		if i < len(ino.DataBlocks) {
			v = ino.DataBlocks[i]
		}
		binary.LittleEndian.PutUint32(ptrBuf[:], uint32(v))
		if _, err := w.Write(ptrBuf[:]); err != nil {
			return tfserrors.ErrDiskError.WrapError(err)
		}
	}
	return nil
}

// Decode reads an on-disk inode record out of buf; the inverse of
// Encode.
func Decode(buf []byte, params layout.Params) (Inode, error) {
	if len(buf) < params.InodeRecordSize() {
		return Inode{}, tfserrors.ErrDiskError.WithMessage("buffer too small for inode record")
	}

	off := 0
	nameBytes := buf[off : off+params.MaxFilenameLength]
	off += params.MaxFilenameLength

	nul := len(nameBytes)
	for i, b := range nameBytes {
		if b == 0 {
			nul = i
			break
		}
	}
	filename := string(nameBytes[:nul])

	size := int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4

	ptrs := make([]int32, params.NumDirectPointers)
	for i := 0; i < params.NumDirectPointers; i++ {
		ptrs[i] = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
	}

	return Inode{Filename: filename, Size: size, DataBlocks: ptrs}, nil
}

// Table provides indexed read/write of individual inode records packed
// across the inode-table region of the device.
type Table struct {
	dev    *block.Device
	params layout.Params
}

// NewTable wraps dev with a Table view using the given layout.
func NewTable(dev *block.Device, params layout.Params) *Table {
	return &Table{dev: dev, params: params}
}

// Read decodes inode index i. It always performs a whole-block read,
// since the device has no partial-block access.
func (t *Table) Read(i int) (Inode, error) {
	blockIdx, offset := t.params.BlockOf(i)

	raw := make([]byte, t.dev.BlockSize())
	if err := t.dev.Read(blockIdx, raw); err != nil {
		return Inode{}, err
	}

	recordSize := t.params.InodeRecordSize()
	return Decode(raw[offset:offset+recordSize], t.params)
}

// Write encodes ino into inode slot i. Because the device only supports
// whole-block I/O, this is always a read-modify-write of the inode's
// home block.
func (t *Table) Write(i int, ino Inode) error {
	blockIdx, offset := t.params.BlockOf(i)

	raw := make([]byte, t.dev.BlockSize())
	if err := t.dev.Read(blockIdx, raw); err != nil {
		return err
	}

	recordSize := t.params.InodeRecordSize()
	if err := Encode(ino, raw[offset:offset+recordSize], t.params); err != nil {
		return err
	}

	return t.dev.Write(blockIdx, raw)
}

// FormatRegion zero-fills every block of the inode-table region. Used
// when formatting a brand-new image.
func FormatRegion(dev *block.Device, params layout.Params) error {
	zero := make([]byte, dev.BlockSize())
	for i := 0; i < params.InodeTableBlocks; i++ {
		if err := dev.Write(layout.InodeTableStart+i, zero); err != nil {
			return err
		}
	}
	return nil
}
