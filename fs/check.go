package fs

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Check performs a read-only consistency pass over the bitmaps, inode
// table, and filenames of a loaded image. It is never invoked
// automatically by Boot; it's an opt-in diagnostic.
//
// Every violation found is collected rather than stopping at the first
// one, since each is independently actionable; the result is nil only if
// no violations were found.
func (f *Filesystem) Check() error {
	var result *multierror.Error

	seenNames := make(map[string]int)
	referencedDataBlocks := make(map[int]int)

	for i := 0; i < f.params.MaxFiles; i++ {
		bitSaysLive := f.inodeMap.Get(i)

		ino, err := f.inodes.Read(i)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("inode %d: %w", i, err))
			continue
		}

		// Bitmap occupancy must track filename liveness exactly.
		if bitSaysLive != ino.IsLive() {
			result = multierror.Append(result, fmt.Errorf(
				"inode %d: bitmap marks it %s but filename is %q",
				i, usedOrFree(bitSaysLive), ino.Filename,
			))
		}
		if !ino.IsLive() {
			continue
		}

		// Filenames must be unique across live inodes.
		if other, dup := seenNames[ino.Filename]; dup {
			result = multierror.Append(result, fmt.Errorf(
				"filename %q is shared by inodes %d and %d", ino.Filename, other, i,
			))
		}
		seenNames[ino.Filename] = i

		// Size must fit the direct-pointer capacity, and every block
		// covering [0, size) must be allocated.
		if int(ino.Size) > f.params.MaxFileSize() {
			result = multierror.Append(result, fmt.Errorf(
				"inode %d: size %d exceeds max file size %d",
				i, ino.Size, f.params.MaxFileSize(),
			))
		}
		blocksNeeded := (int(ino.Size) + f.params.BlockSize - 1) / f.params.BlockSize

		// Every pointer is either -1 or a valid, allocated data block.
		for ptrIdx, b := range ino.DataBlocks {
			if b == -1 {
				if ptrIdx < blocksNeeded {
					result = multierror.Append(result, fmt.Errorf(
						"inode %d: pointer %d is unallocated but size %d requires it",
						i, ptrIdx, ino.Size,
					))
				}
				continue
			}
			if int(b) < f.params.DataBlockStart || int(b) >= f.params.NumBlocks {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d: pointer %d references out-of-range block %d", i, ptrIdx, b,
				))
				continue
			}
			if !f.dataMap.Get(int(b)) {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d: pointer %d references block %d, not marked used in data bitmap",
					i, ptrIdx, b,
				))
			}
			referencedDataBlocks[int(b)]++
		}
	}

	// The data bitmap's used bits must equal the union of live inodes'
	// pointer sets, with no block shared by two inodes.
	for b := f.params.DataBlockStart; b < f.params.NumBlocks; b++ {
		count := referencedDataBlocks[b]
		bitUsed := f.dataMap.Get(b)

		if count > 1 {
			result = multierror.Append(result, fmt.Errorf(
				"data block %d is referenced by %d inodes simultaneously", b, count,
			))
		}
		if bitUsed && count == 0 {
			result = multierror.Append(result, fmt.Errorf(
				"data block %d is marked used but not referenced by any live inode (leaked)", b,
			))
		}
		if !bitUsed && count > 0 {
			result = multierror.Append(result, fmt.Errorf(
				"data block %d is referenced by a live inode but not marked used", b,
			))
		}
	}

	return result.ErrorOrNil()
}

func usedOrFree(used bool) string {
	if used {
		return "used"
	}
	return "free"
}
