// Package tinytest provides test-only helpers for booting scratch
// TinyFS images and filling them with fixture data.
package tinytest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tinyfs-go/tinyfs/fs"
	"github.com/tinyfs-go/tinyfs/layout"
)

// BootScratch formats a brand-new image in a temporary directory using
// params (layout.DefaultParams() if the zero value is passed) and fails
// the test immediately if boot doesn't succeed.
func BootScratch(t *testing.T, params layout.Params) (*fs.Filesystem, string) {
	t.Helper()

	if params == (layout.Params{}) {
		params = layout.DefaultParams()
	}

	path := filepath.Join(t.TempDir(), "scratch.img")
	filesystem, err := fs.Boot(path, params, nil)
	require.NoError(t, err)
	return filesystem, path
}

// FillFile creates name, opens it, writes contents to it, and closes it,
// failing the test immediately on any error. Returns nothing; callers
// re-open the file themselves to assert against it.
func FillFile(t *testing.T, filesystem *fs.Filesystem, name string, contents []byte) {
	t.Helper()

	require.NoError(t, filesystem.Create(name))
	fd, err := filesystem.Open(name)
	require.NoError(t, err)

	n, err := filesystem.Write(fd, contents)
	require.NoError(t, err)
	require.Equal(t, len(contents), n)

	require.NoError(t, filesystem.Close(fd))
}
