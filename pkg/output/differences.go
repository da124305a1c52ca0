package output

import (
	"fmt"

	"github.com/sdejongh/locsync/pkg/manifest"
	"github.com/spf13/afero"
)

// WriteDiffFile writes a diff view as YAML to path, refusing to replace an
// existing file unless force is set
func WriteDiffFile(fs afero.Fs, path string, view DiffView, force bool) error {
	data, err := MarshalDiff(view)
	if err != nil {
		return fmt.Errorf("failed to encode diff: %w", err)
	}
	return manifest.WriteRaw(fs, path, data, force)
}
