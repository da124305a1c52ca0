package manifest

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/sdejongh/locsync/pkg/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fooSum = "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae"

func TestParse(t *testing.T) {
	t.Run("FlatList", func(t *testing.T) {
		doc, err := Parse([]byte("- a.txt\n- sub/b.txt\n"), "dump.yaml")
		require.NoError(t, err)
		assert.True(t, doc.Flat)
		assert.Equal(t, []string{"a.txt", "sub/b.txt"}, doc.Paths())
		assert.False(t, doc.HasInfo())
	})

	t.Run("Mapping", func(t *testing.T) {
		src := `
root: ../data
host: me@box
files:
  - a.txt
  - path: b.txt
    sha256: ` + fooSum + `
    size: 3
`
		doc, err := Parse([]byte(src), "info.yaml")
		require.NoError(t, err)
		assert.False(t, doc.Flat)
		assert.Equal(t, "../data", doc.Root)
		assert.Equal(t, "me@box", doc.Host)
		require.Len(t, doc.Files, 2)
		assert.False(t, doc.Files[0].HasInfo)
		assert.Equal(t, FileEntry{Path: "b.txt", SHA256: fooSum, Size: 3, HasInfo: true}, doc.Files[1])
	})

	t.Run("SSHAlias", func(t *testing.T) {
		doc, err := Parse([]byte("root: /x\nssh: me@box\nfiles: []\n"), "info.yaml")
		require.NoError(t, err)
		assert.Equal(t, "me@box", doc.Host)
	})

	t.Run("ParallelLists", func(t *testing.T) {
		src := "root: .\nfiles: [a, b]\nsha256: [" + fooSum + ", " + fooSum + "]\nsize: [3, 3]\n"
		doc, err := Parse([]byte(src), "info.yaml")
		require.NoError(t, err)
		assert.True(t, doc.HasInfo())
		assert.Equal(t, int64(3), doc.Files[1].Size)
	})

	t.Run("Search", func(t *testing.T) {
		src := "root: .\nsearch:\n  - rootdir: run\n    name: \"*.h5\"\n    skip: \"**/tmp/**\"\n    maxdepth: 2\n"
		doc, err := Parse([]byte(src), "info.yaml")
		require.NoError(t, err)
		require.Len(t, doc.Search, 1)
		assert.Equal(t, SearchSpec{RootDir: "run", Name: "*.h5", Skip: stringList{"**/tmp/**"}, MaxDepth: 2}, doc.Search[0])
	})

	t.Run("Empty", func(t *testing.T) {
		doc, err := Parse(nil, "empty.yaml")
		require.NoError(t, err)
		assert.Empty(t, doc.Files)
	})
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"InvalidYAML":      "files: [a\n",
		"Scalar":           "just a string\n",
		"PartialMetadata":  "files:\n  - path: a\n    sha256: " + fooSum + "\n",
		"Duplicate":        "- a\n- a\n",
		"HostDisagrees":    "host: a@b\nssh: c@d\nfiles: []\n",
		"DumpAndSearch":    "dump: d.yaml\nsearch:\n  - name: x\n",
		"ParallelMismatch": "files: [a, b]\nsha256: [" + fooSum + "]\nsize: [3]\n",
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), "bad.yaml")
			var me *models.ManifestError
			require.Error(t, err)
			assert.True(t, errors.As(err, &me), "want ManifestError, got %T", err)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := &Document{
		Root: "/data",
		Host: "me@box",
		Files: []FileEntry{
			{Path: "a.txt"},
			{Path: "sub/b.txt", SHA256: fooSum, Size: 3, HasInfo: true},
		},
	}

	require.NoError(t, Write(fs, "/m/info.yaml", doc, false))
	back, err := Read(fs, "/m/info.yaml")
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestWriteRefusesOverwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := &Document{Flat: true, Files: []FileEntry{{Path: "a"}}}

	require.NoError(t, Write(fs, "dump.yaml", doc, false))
	err := Write(fs, "dump.yaml", doc, false)
	assert.ErrorIs(t, err, ErrExists)
	assert.NoError(t, Write(fs, "dump.yaml", doc, true))
}

func TestWriteLocksOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.yaml")
	fs := afero.NewOsFs()

	require.NoError(t, Write(fs, path, &Document{Flat: true, Files: []FileEntry{{Path: "a"}}}, false))
	ok, err := afero.Exists(fs, path+".lock")
	require.NoError(t, err)
	assert.False(t, ok, "lock file should be removed after writing")
}

func TestAppend(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, Append(fs, "dump.yaml", []FileEntry{{Path: "a"}, {Path: "b"}}))
	require.NoError(t, Append(fs, "dump.yaml", []FileEntry{{Path: "b"}, {Path: "c"}}))

	doc, err := Read(fs, "dump.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, doc.Paths())

	require.NoError(t, Write(fs, "info.yaml", &Document{Root: "."}, false))
	assert.Error(t, Append(fs, "info.yaml", []FileEntry{{Path: "x"}}))
}
