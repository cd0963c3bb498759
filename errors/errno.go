package errors

// The error kinds used throughout the public API. Each is a distinct
// sentinel so callers can distinguish failures with errors.Is, e.g.
// errors.Is(err, errors.ErrNoSpace).
const (
	// ErrDiskError covers failures of the underlying block device or host
	// file I/O, and loading an image that isn't a TinyFS image.
	ErrDiskError = Kind("disk error")
	// ErrFileExists is returned when Create collides with an existing
	// name, and also for an empty name.
	ErrFileExists = Kind("file already exists")
	// ErrNoSuchFile is returned by Open/Delete on an unknown name.
	ErrNoSuchFile = Kind("no such file")
	// ErrNoSpace is returned when the inode bitmap is full (create) or the
	// data bitmap is full (write).
	ErrNoSpace = Kind("no space left on device")
	// ErrTooManyOpenFiles is returned when the open-file table is full.
	ErrTooManyOpenFiles = Kind("too many open files")
	// ErrBadFD is returned for a descriptor that's out of range or whose
	// slot isn't in use.
	ErrBadFD = Kind("bad file descriptor")
	// ErrFileInUse is returned by Delete when at least one open-file slot
	// still references the target inode.
	ErrFileInUse = Kind("file is in use")
	// ErrFileTooBig is returned by Write when the write would cross the
	// direct-pointer capacity of the inode.
	ErrFileTooBig = Kind("file too big")
)
