// Package fs implements TinyFS's file-operations layer:
// create/open/read/write/close/delete, composed from the block device,
// bitmap manager, inode table, namespace lookup, and open-file table.
package fs

import (
	"encoding/binary"
	"log"

	"github.com/tinyfs-go/tinyfs/bitmap"
	"github.com/tinyfs-go/tinyfs/block"
	tfserrors "github.com/tinyfs-go/tinyfs/errors"
	"github.com/tinyfs-go/tinyfs/inode"
	"github.com/tinyfs-go/tinyfs/layout"
	"github.com/tinyfs-go/tinyfs/openfile"
)

// Filesystem is the single owning value for all TinyFS state: the block
// device, both bitmaps, the inode table, and the open-file table. It is
// not safe for concurrent use from multiple goroutines; callers adding
// concurrency should wrap every public method call in a single mutex.
type Filesystem struct {
	params     layout.Params
	dev        *block.Device
	inodeMap   *bitmap.Manager
	dataMap    *bitmap.Manager
	inodes     *inode.Table
	openFiles  *openfile.Table
	path       string
	logger     *log.Logger
}

func (f *Filesystem) logf(format string, args ...any) {
	if f.logger != nil {
		f.logger.Printf(format, args...)
	}
}

// Boot opens the TinyFS image at path. If no readable image exists at
// path, a fresh one is formatted and saved there. If a file is read
// successfully but doesn't carry a valid TinyFS magic number, Boot
// returns ErrDiskError rather than overwriting it: only the absence of a
// loadable file triggers formatting. logger may be nil, in which case
// boot/format/sync/create/delete events are not logged. Check does not
// log.
func Boot(path string, params layout.Params, logger *log.Logger) (*Filesystem, error) {
	dev := block.New(params.BlockSize, params.NumBlocks)

	f := &Filesystem{
		params:    params,
		dev:       dev,
		inodes:    inode.NewTable(dev, params),
		openFiles: openfile.New(params.OpenFileTableSize, params.FDOffset),
		path:      path,
		logger:    logger,
	}

	if err := dev.Load(path); err == nil {
		if err := f.loadExisting(); err != nil {
			return nil, err
		}
		f.logf("tinyfs: loaded existing image %s", path)
		return f, nil
	}

	f.logf("tinyfs: formatting new image %s", path)
	if err := f.format(); err != nil {
		return nil, err
	}
	if err := dev.Save(path); err != nil {
		return nil, tfserrors.ErrDiskError.WrapError(err)
	}
	return f, nil
}

func (f *Filesystem) loadExisting() error {
	superblock := make([]byte, f.params.BlockSize)
	if err := f.dev.Read(layout.SuperblockIndex, superblock); err != nil {
		return err
	}
	magic := binary.LittleEndian.Uint32(superblock[:4])
	if magic != layout.MagicNumber {
		return tfserrors.ErrDiskError.WithMessage("not a TinyFS image: bad magic number")
	}

	inodeMap, err := bitmap.Load(f.dev, layout.InodeBitmapIndex, 0, f.params.MaxFiles)
	if err != nil {
		return err
	}
	dataMap, err := bitmap.Load(f.dev, layout.DataBitmapIndex, f.params.DataBlockStart, f.params.NumBlocks)
	if err != nil {
		return err
	}

	f.inodeMap = inodeMap
	f.dataMap = dataMap
	f.openFiles = openfile.New(f.params.OpenFileTableSize, f.params.FDOffset)
	return nil
}

// format lays out a brand-new image: superblock, both empty bitmaps, a
// zeroed inode table, and zeroed data blocks.
func (f *Filesystem) format() error {
	superblock := make([]byte, f.params.BlockSize)
	binary.LittleEndian.PutUint32(superblock[:4], layout.MagicNumber)
	if err := f.dev.Write(layout.SuperblockIndex, superblock); err != nil {
		return err
	}

	inodeMap, err := bitmap.Format(f.dev, layout.InodeBitmapIndex, 0, f.params.MaxFiles)
	if err != nil {
		return err
	}
	dataMap, err := bitmap.Format(f.dev, layout.DataBitmapIndex, f.params.DataBlockStart, f.params.NumBlocks)
	if err != nil {
		return err
	}
	f.inodeMap = inodeMap
	f.dataMap = dataMap

	if err := inode.FormatRegion(f.dev, f.params); err != nil {
		return err
	}

	zero := make([]byte, f.params.BlockSize)
	for b := f.params.DataBlockStart; b < f.params.NumBlocks; b++ {
		if err := f.dev.Write(b, zero); err != nil {
			return err
		}
	}

	f.openFiles = openfile.New(f.params.OpenFileTableSize, f.params.FDOffset)
	return nil
}

// Sync persists the in-memory device state to the image's host path.
// Every mutating operation already writes through to the in-memory
// device (and, for bitmaps, to their dedicated blocks); Sync is the only
// point at which the host file itself is rewritten.
func (f *Filesystem) Sync() error {
	if err := f.dev.Save(f.path); err != nil {
		return err
	}
	f.logf("tinyfs: synced image %s", f.path)
	return nil
}

// lookupFile performs a linear scan of the namespace, returning the
// index of the live inode named name, or -1 if not found.
func (f *Filesystem) lookupFile(name string) (int, error) {
	for i := 0; i < f.params.MaxFiles; i++ {
		if !f.inodeMap.Get(i) {
			continue
		}
		ino, err := f.inodes.Read(i)
		if err != nil {
			return -1, err
		}
		if ino.Filename == name {
			return i, nil
		}
	}
	return -1, nil
}

// Create creates a new, empty file named name.
func (f *Filesystem) Create(name string) error {
	if name == "" {
		// An empty name reports as file-exists rather than a dedicated
		// bad-name error.
		return tfserrors.ErrFileExists
	}

	existing, err := f.lookupFile(name)
	if err != nil {
		return err
	}
	if existing != -1 {
		return tfserrors.ErrFileExists
	}

	idx, err := f.inodeMap.Allocate()
	if err != nil {
		return err
	}

	ino := inode.Empty(f.params.NumDirectPointers)
	ino.Filename = name
	if len(name) >= f.params.MaxFilenameLength {
		ino.Filename = name[:f.params.MaxFilenameLength-1]
	}

	if err := f.inodes.Write(idx, ino); err != nil {
		return err
	}
	f.logf("tinyfs: created %q (inode %d)", name, idx)
	return nil
}

// Open opens an existing file and returns a file descriptor. The cursor
// starts at 0.
func (f *Filesystem) Open(name string) (int, error) {
	idx, err := f.lookupFile(name)
	if err != nil {
		return -1, err
	}
	if idx == -1 {
		return -1, tfserrors.ErrNoSuchFile
	}
	return f.openFiles.Open(idx)
}

// Close releases fd's slot. No flush is required: writes are already
// persisted to the in-memory device as they happen.
func (f *Filesystem) Close(fd int) error {
	return f.openFiles.Close(fd)
}

// Read copies up to len(buf) bytes starting at fd's cursor into buf,
// advancing the cursor by the number of bytes copied. A nil or
// zero-length buf is treated permissively, returning (0, nil) rather
// than an error.
func (f *Filesystem) Read(fd int, buf []byte) (int, error) {
	if buf == nil || len(buf) <= 0 {
		return 0, nil
	}

	inodeIndex, cursor, err := f.openFiles.InodeOf(fd)
	if err != nil {
		return 0, err
	}

	ino, err := f.inodes.Read(inodeIndex)
	if err != nil {
		return 0, err
	}

	if cursor >= int(ino.Size) {
		return 0, nil
	}

	bytesToRead := len(buf)
	if cursor+bytesToRead > int(ino.Size) {
		bytesToRead = int(ino.Size) - cursor
	}

	copied := 0
	for copied < bytesToRead {
		blockIndex := cursor / f.params.BlockSize
		if blockIndex >= f.params.NumDirectPointers {
			break
		}

		diskBlock := ino.DataBlocks[blockIndex]
		if diskBlock < 0 {
			break
		}

		blockBuf := make([]byte, f.params.BlockSize)
		if err := f.dev.Read(int(diskBlock), blockBuf); err != nil {
			return copied, err
		}

		blockOffset := cursor % f.params.BlockSize
		chunk := f.params.BlockSize - blockOffset
		if remaining := bytesToRead - copied; chunk > remaining {
			chunk = remaining
		}

		copy(buf[copied:copied+chunk], blockBuf[blockOffset:blockOffset+chunk])

		cursor += chunk
		copied += chunk
	}

	if err := f.openFiles.SetCursor(fd, cursor); err != nil {
		return copied, err
	}
	return copied, nil
}

// Write copies buf into the file starting at fd's cursor, allocating new
// data blocks as needed. Blocks already allocated and written in this
// call are not rolled back if a later chunk fails; the inode and cursor
// reflect whatever progress was made.
func (f *Filesystem) Write(fd int, buf []byte) (int, error) {
	if buf == nil || len(buf) <= 0 {
		return 0, nil
	}

	inodeIndex, cursor, err := f.openFiles.InodeOf(fd)
	if err != nil {
		return 0, err
	}

	ino, err := f.inodes.Read(inodeIndex)
	if err != nil {
		return 0, err
	}

	written := 0
	size := len(buf)
	for written < size {
		blockIndex := cursor / f.params.BlockSize
		if blockIndex >= f.params.NumDirectPointers {
			// Persist whatever partial progress was made before bailing:
			// the inode and cursor reflect every block written so far,
			// even though this call reports an error overall.
			if flushErr := f.flushWrite(fd, inodeIndex, &ino, cursor); flushErr != nil {
				return written, flushErr
			}
			return written, tfserrors.ErrFileTooBig
		}

		if ino.DataBlocks[blockIndex] < 0 {
			newBlock, err := f.dataMap.Allocate()
			if err != nil {
				if flushErr := f.flushWrite(fd, inodeIndex, &ino, cursor); flushErr != nil {
					return written, flushErr
				}
				return written, err
			}

			zero := make([]byte, f.params.BlockSize)
			if err := f.dev.Write(newBlock, zero); err != nil {
				return written, err
			}
			ino.DataBlocks[blockIndex] = int32(newBlock)
		}

		diskBlock := int(ino.DataBlocks[blockIndex])
		blockBuf := make([]byte, f.params.BlockSize)
		if err := f.dev.Read(diskBlock, blockBuf); err != nil {
			return written, err
		}

		blockOffset := cursor % f.params.BlockSize
		chunk := f.params.BlockSize - blockOffset
		if remaining := size - written; chunk > remaining {
			chunk = remaining
		}

		copy(blockBuf[blockOffset:blockOffset+chunk], buf[written:written+chunk])
		if err := f.dev.Write(diskBlock, blockBuf); err != nil {
			return written, err
		}

		cursor += chunk
		written += chunk
	}

	if err := f.flushWrite(fd, inodeIndex, &ino, cursor); err != nil {
		return written, err
	}
	return written, nil
}

// flushWrite persists the inode (growing its size if the cursor advanced
// past it) and the handle's new cursor. Factored out because the
// file-too-big and no-space error paths in Write must still persist
// whatever progress was made.
func (f *Filesystem) flushWrite(fd, inodeIndex int, ino *inode.Inode, cursor int) error {
	if cursor > int(ino.Size) {
		ino.Size = int32(cursor)
	}
	if err := f.inodes.Write(inodeIndex, *ino); err != nil {
		return err
	}
	return f.openFiles.SetCursor(fd, cursor)
}

// Delete removes a file. Fails if any open-file slot still references
// it.
func (f *Filesystem) Delete(name string) error {
	idx, err := f.lookupFile(name)
	if err != nil {
		return err
	}
	if idx == -1 {
		return tfserrors.ErrNoSuchFile
	}
	if f.openFiles.HasOpenHandle(idx) {
		return tfserrors.ErrFileInUse
	}

	ino, err := f.inodes.Read(idx)
	if err != nil {
		return err
	}

	for _, b := range ino.DataBlocks {
		if b >= 0 {
			if err := f.dataMap.Free(int(b)); err != nil {
				return err
			}
		}
	}

	if err := f.inodes.Write(idx, inode.Empty(f.params.NumDirectPointers)); err != nil {
		return err
	}

	if err := f.inodeMap.Free(idx); err != nil {
		return err
	}
	f.logf("tinyfs: deleted %q (inode %d)", name, idx)
	return nil
}

// Params returns the layout parameters this Filesystem was booted with.
func (f *Filesystem) Params() layout.Params {
	return f.params
}

// List returns the names and sizes of every live file, in inode order.
// A read-only helper for the CLI driver and for tests.
func (f *Filesystem) List() ([]FileInfo, error) {
	var out []FileInfo
	for i := 0; i < f.params.MaxFiles; i++ {
		if !f.inodeMap.Get(i) {
			continue
		}
		ino, err := f.inodes.Read(i)
		if err != nil {
			return nil, err
		}
		out = append(out, FileInfo{Name: ino.Filename, Size: int(ino.Size)})
	}
	return out, nil
}

// FileInfo describes one live file, as returned by List.
type FileInfo struct {
	Name string
	Size int
}
