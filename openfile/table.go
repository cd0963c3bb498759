// Package openfile implements TinyFS's open-file table: a fixed-size
// array of handle slots mapping user-facing descriptors to (inode
// index, byte cursor). Pure in-memory state, never persisted.
package openfile

import (
	tfserrors "github.com/tinyfs-go/tinyfs/errors"
)

// InvalidInode is the sentinel inode index for a free slot.
const InvalidInode = -1

// slot is one entry of the open-file table.
type slot struct {
	used        bool
	inodeIndex  int
	filePointer int
}

// Table is a fixed-size array of open-file slots. Descriptors are
// computed as slot index + fdOffset.
type Table struct {
	slots    []slot
	fdOffset int
}

// New creates a Table with size slots, all free.
func New(size, fdOffset int) *Table {
	slots := make([]slot, size)
	for i := range slots {
		slots[i].inodeIndex = InvalidInode
	}
	return &Table{slots: slots, fdOffset: fdOffset}
}

// Size returns the number of slots in the table.
func (t *Table) Size() int {
	return len(t.slots)
}

// Open acquires the first free slot for inodeIndex, with the cursor
// starting at 0, and returns its user-facing descriptor. Returns
// ErrTooManyOpenFiles if every slot is in use.
func (t *Table) Open(inodeIndex int) (int, error) {
	for i := range t.slots {
		if !t.slots[i].used {
			t.slots[i] = slot{used: true, inodeIndex: inodeIndex, filePointer: 0}
			return i + t.fdOffset, nil
		}
	}
	return -1, tfserrors.ErrTooManyOpenFiles
}

// fdToIndex resolves a user-facing descriptor to a slot index, only if
// it's in range and currently in use.
func (t *Table) fdToIndex(fd int) (int, bool) {
	idx := fd - t.fdOffset
	if idx < 0 || idx >= len(t.slots) {
		return -1, false
	}
	if !t.slots[idx].used {
		return -1, false
	}
	return idx, true
}

// InodeOf returns the inode index and cursor for fd. Returns ErrBadFD if
// fd doesn't refer to an open slot.
func (t *Table) InodeOf(fd int) (inodeIndex int, cursor int, err error) {
	idx, ok := t.fdToIndex(fd)
	if !ok {
		return -1, 0, tfserrors.ErrBadFD
	}
	return t.slots[idx].inodeIndex, t.slots[idx].filePointer, nil
}

// SetCursor updates the cursor for fd's slot. Returns ErrBadFD if fd
// doesn't refer to an open slot.
func (t *Table) SetCursor(fd int, cursor int) error {
	idx, ok := t.fdToIndex(fd)
	if !ok {
		return tfserrors.ErrBadFD
	}
	t.slots[idx].filePointer = cursor
	return nil
}

// Close releases fd's slot. Returns ErrBadFD if fd doesn't refer to an
// open slot.
func (t *Table) Close(fd int) error {
	idx, ok := t.fdToIndex(fd)
	if !ok {
		return tfserrors.ErrBadFD
	}
	t.slots[idx] = slot{inodeIndex: InvalidInode}
	return nil
}

// HasOpenHandle reports whether any slot currently references
// inodeIndex. Used by Delete to enforce the "no open handle" rule.
func (t *Table) HasOpenHandle(inodeIndex int) bool {
	for _, s := range t.slots {
		if s.used && s.inodeIndex == inodeIndex {
			return true
		}
	}
	return false
}
