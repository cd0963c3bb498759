// Package block implements TinyFS's block device: a fixed-size array of
// equal-size blocks held in process memory, with whole-block read/write
// and host-file load/save.
package block

import (
	"io"
	"os"

	tfserrors "github.com/tinyfs-go/tinyfs/errors"
)

// Device is a fixed array of NumBlocks blocks of BlockSize bytes, held
// entirely in memory. There is no caching layer: a write is immediately
// visible to subsequent reads on the same Device, but isn't persisted to
// a host file until Save is called.
type Device struct {
	blockSize int
	numBlocks int
	data      []byte
}

// New creates a zeroed Device of exactly numBlocks blocks of blockSize
// bytes each.
func New(blockSize, numBlocks int) *Device {
	return &Device{
		blockSize: blockSize,
		numBlocks: numBlocks,
		data:      make([]byte, blockSize*numBlocks),
	}
}

// BlockSize returns the number of bytes in a single block.
func (d *Device) BlockSize() int {
	return d.blockSize
}

// NumBlocks returns the total number of blocks on the device.
func (d *Device) NumBlocks() int {
	return d.numBlocks
}

func (d *Device) checkBounds(blockIndex int, buffer []byte) tfserrors.TinyFSError {
	if blockIndex < 0 || blockIndex >= d.numBlocks {
		return tfserrors.ErrDiskError.WithMessage(
			"block index out of range",
		)
	}
	if buffer == nil {
		return tfserrors.ErrDiskError.WithMessage("nil buffer")
	}
	if len(buffer) != d.blockSize {
		return tfserrors.ErrDiskError.WithMessage("buffer is not exactly one block")
	}
	return nil
}

// Read copies block blockIndex into out. out must be exactly BlockSize
// bytes. Fails if blockIndex is out of range or out is nil/mis-sized.
func (d *Device) Read(blockIndex int, out []byte) error {
	if err := d.checkBounds(blockIndex, out); err != nil {
		return err
	}
	start := blockIndex * d.blockSize
	copy(out, d.data[start:start+d.blockSize])
	return nil
}

// Write copies in into block blockIndex. in must be exactly BlockSize
// bytes. Fails if blockIndex is out of range or in is nil/mis-sized.
func (d *Device) Write(blockIndex int, in []byte) error {
	if err := d.checkBounds(blockIndex, in); err != nil {
		return err
	}
	start := blockIndex * d.blockSize
	copy(d.data[start:start+d.blockSize], in)
	return nil
}

// Save writes every block, in index order, to the host file at path,
// overwriting any existing file. This is the only point at which the
// in-memory device state is persisted.
func (d *Device) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return tfserrors.ErrDiskError.WrapError(err)
	}
	defer file.Close()

	if _, err := file.Write(d.data); err != nil {
		return tfserrors.ErrDiskError.WrapError(err)
	}
	return nil
}

// Load reads NumBlocks blocks of BlockSize bytes from the host file at
// path into the device, replacing its current contents. It fails unless
// it reads back exactly NumBlocks*BlockSize bytes.
func (d *Device) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return tfserrors.ErrDiskError.WrapError(err)
	}
	defer file.Close()

	buf := make([]byte, len(d.data))
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return tfserrors.ErrDiskError.WrapError(err)
	}
	if n != len(buf) {
		return tfserrors.ErrDiskError.WithMessage("short read loading disk image")
	}

	d.data = buf
	return nil
}
