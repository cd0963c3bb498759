// Package bitmap implements TinyFS's bitmap manager: an in-memory
// occupancy vector for inodes or data blocks, mirrored write-through to
// a dedicated block on the device so the on-disk copy never drifts from
// memory.
package bitmap

import (
	bm "github.com/boljen/go-bitmap"
	tfserrors "github.com/tinyfs-go/tinyfs/errors"
	"github.com/tinyfs-go/tinyfs/block"
)

// Manager owns one bitmap's in-memory bits and its on-device mirror. It
// scans for a free slot starting at startIndex (0 for the inode bitmap,
// DataBlockStart for the data bitmap), first-fit.
type Manager struct {
	bits        bm.Bitmap
	dev         *block.Device
	blockIndex  int
	startIndex  int
	totalSlots  int
}

// Load reads the bitmap's home block from dev and decodes it into an
// in-memory Manager covering slots [0, totalSlots). See entryWidth for the
// on-disk format.
func Load(dev *block.Device, blockIndex, startIndex, totalSlots int) (*Manager, error) {
	m := newEmpty(dev, blockIndex, startIndex, totalSlots)

	raw := make([]byte, dev.BlockSize())
	if err := dev.Read(blockIndex, raw); err != nil {
		return nil, err
	}

	for i := 0; i < totalSlots; i++ {
		if decodeEntry(raw, i) {
			m.bits.Set(i, true)
		}
	}
	return m, nil
}

// Format creates a fresh, all-free Manager and writes its encoding to
// dev's home block.
func Format(dev *block.Device, blockIndex, startIndex, totalSlots int) (*Manager, error) {
	m := newEmpty(dev, blockIndex, startIndex, totalSlots)
	if err := m.flush(); err != nil {
		return nil, err
	}
	return m, nil
}

func newEmpty(dev *block.Device, blockIndex, startIndex, totalSlots int) *Manager {
	return &Manager{
		bits:       bm.New(totalSlots),
		dev:        dev,
		blockIndex: blockIndex,
		startIndex: startIndex,
		totalSlots: totalSlots,
	}
}

// entryWidth is the number of bytes used to encode one bitmap entry: a
// single little-endian uint32 whose low bit carries the used flag and
// whose upper bits are always zero.
const entryWidth = 4

func decodeEntry(raw []byte, index int) bool {
	off := index * entryWidth
	if off+entryWidth > len(raw) {
		return false
	}
	return raw[off]&1 != 0
}

func encodeEntry(raw []byte, index int, used bool) {
	off := index * entryWidth
	var v byte
	if used {
		v = 1
	}
	raw[off] = v
	raw[off+1] = 0
	raw[off+2] = 0
	raw[off+3] = 0
}

// flush re-encodes the whole bitmap and writes it back to its home
// block. Called after every mutation of bits, and by Format to write the
// initial all-free encoding.
func (m *Manager) flush() error {
	raw := make([]byte, m.dev.BlockSize())
	for i := 0; i < m.totalSlots; i++ {
		encodeEntry(raw, i, m.bits.Get(i))
	}
	return m.dev.Write(m.blockIndex, raw)
}

// Get reports whether slot i is marked used. Out-of-range indices report
// false.
func (m *Manager) Get(i int) bool {
	if i < 0 || i >= m.totalSlots {
		return false
	}
	return m.bits.Get(i)
}

// Allocate scans from startIndex for the first free slot, marks it used,
// writes the bitmap through to disk, and returns its index. Returns
// ErrNoSpace if no free slot exists.
func (m *Manager) Allocate() (int, error) {
	for i := m.startIndex; i < m.totalSlots; i++ {
		if !m.bits.Get(i) {
			m.bits.Set(i, true)
			if err := m.flush(); err != nil {
				return -1, err
			}
			return i, nil
		}
	}
	return -1, tfserrors.ErrNoSpace
}

// Free marks slot i free and writes the bitmap through to disk. Freeing
// an out-of-range index is a silent no-op.
func (m *Manager) Free(i int) error {
	if i < 0 || i >= m.totalSlots {
		return nil
	}
	m.bits.Set(i, false)
	return m.flush()
}

// TotalSlots returns the logical size of this bitmap.
func (m *Manager) TotalSlots() int {
	return m.totalSlots
}
