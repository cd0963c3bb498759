package fs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinyfs-go/tinyfs/internal/tinytest"
	"github.com/tinyfs-go/tinyfs/layout"
)

func TestTinytestHelpers_FillFileThenReadBack(t *testing.T) {
	filesystem, _ := tinytest.BootScratch(t, layout.Params{})
	tinytest.FillFile(t, filesystem, "helper.txt", []byte("via tinytest"))

	fd, err := filesystem.Open("helper.txt")
	require.NoError(t, err)

	buf := make([]byte, 32)
	n, err := filesystem.Read(fd, buf)
	require.NoError(t, err)
	assert.Equal(t, "via tinytest", string(buf[:n]))
}
