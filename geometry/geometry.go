// Package geometry provides named disk-geometry presets: a table of
// layout configurations (block size, block count, max files, filename
// length, direct pointers, open-file table size) callers can select by
// name instead of hand-deriving layout.Params.
package geometry

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/tinyfs-go/tinyfs/layout"
)

// Preset is one named disk-geometry configuration.
type Preset struct {
	Slug              string `csv:"slug"`
	Description       string `csv:"description"`
	BlockSize         int    `csv:"block_size"`
	NumBlocks         int    `csv:"num_blocks"`
	MaxFiles          int    `csv:"max_files"`
	MaxFilenameLength int    `csv:"max_filename_length"`
	NumDirectPointers int    `csv:"num_direct_pointers"`
	OpenFileTableSize int    `csv:"open_file_table_size"`
}

// Params derives a validated layout.Params from this preset. File
// descriptors returned by Filesystem.Open start at 3, leaving room for
// the conventional stdin/stdout/stderr descriptors.
func (p Preset) Params() (layout.Params, error) {
	return layout.NewParams(
		p.BlockSize, p.NumBlocks, p.MaxFiles, p.MaxFilenameLength,
		p.NumDirectPointers, p.OpenFileTableSize, 3,
	)
}

//go:embed presets.csv
var presetsRawCSV string

var presets map[string]Preset

func init() {
	presets = make(map[string]Preset)
	reader := strings.NewReader(presetsRawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Preset) error {
		if _, exists := presets[row.Slug]; exists {
			return fmt.Errorf("duplicate geometry preset slug %q", row.Slug)
		}
		presets[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(fmt.Sprintf("geometry: malformed presets.csv: %s", err))
	}
}

// Get looks up a preset by slug.
func Get(slug string) (Preset, error) {
	preset, ok := presets[slug]
	if !ok {
		return Preset{}, fmt.Errorf("no predefined disk geometry named %q", slug)
	}
	return preset, nil
}

// Names returns every known preset slug.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}
