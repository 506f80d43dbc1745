package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMergeConcatenatesInListingOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.jsonl"), []byte("{\"n\":3}\n\n{\"n\":4}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jsonl"), []byte("{\"n\":1}\n   \n{\"n\":2}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored\n"), 0o644))

	out := filepath.Join(dir, "all.jsonl")
	res, err := Merge(dir, out, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 2, res.Files)
	require.Equal(t, 4, res.Lines)
	require.Equal(t, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`, `{"n":4}`}, readLines(t, out))

	// A second run must not pick up its own previous output.
	res, err = Merge(dir, out, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 4, res.Lines)
}

func TestMergeCountDoesNotDependOnFileLayout(t *testing.T) {
	records := []string{`{"n":1}`, `{"n":2}`, `{"n":3}`, `{"n":4}`, `{"n":5}`}
	layouts := [][]int{{5}, {1, 4}, {2, 2, 1}, {1, 1, 1, 1, 1}}

	for _, layout := range layouts {
		dir := t.TempDir()
		next := 0
		for i, size := range layout {
			var content []byte
			for j := 0; j < size; j++ {
				content = append(content, records[next]+"\n\n"...)
				next++
			}
			name := filepath.Join(dir, string(rune('a'+i))+".jsonl")
			require.NoError(t, os.WriteFile(name, content, 0o644))
		}

		out := filepath.Join(t.TempDir(), "all.jsonl")
		res, err := Merge(dir, out, zap.NewNop())
		require.NoError(t, err)
		require.Equal(t, len(records), res.Lines)
		require.Equal(t, records, readLines(t, out))
	}
}

func TestMergeMissingDir(t *testing.T) {
	_, err := Merge(filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "all.jsonl"), zap.NewNop())
	require.Error(t, err)
}
