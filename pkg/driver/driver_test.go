package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstrick/go-bsdiff/pkg/patchfmt"
	"github.com/dstrick/go-bsdiff/pkg/suffixarray"
)

func TestDiffPatchBytesRoundTrip(t *testing.T) {
	old := []byte("a reasonably unremarkable old file with some text in it")
	new := []byte("a reasonably unremarkable NEW file with some different text in it, and more")

	lowMem := false
	patch, err := DiffBytes(old, new, DiffOptions{Quiet: true, LowMem: &lowMem})
	require.NoError(t, err)
	got, err := PatchBytes(old, patch, PatchOptions{Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, new, got)
}

func TestDiffPatchFilesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old")
	newPath := filepath.Join(dir, "new")
	patchPath := filepath.Join(dir, "patch")
	outPath := filepath.Join(dir, "out")

	old := []byte("file contents before the change, repeated a bit a bit a bit")
	new := []byte("file contents after the change, repeated a bit a bit a bit a bit")

	require.NoError(t, os.WriteFile(oldPath, old, 0644))
	require.NoError(t, os.WriteFile(newPath, new, 0644))

	require.NoError(t, DiffFiles(oldPath, newPath, patchPath, DiffOptions{Quiet: true}))
	require.NoError(t, PatchFiles(oldPath, patchPath, outPath, PatchOptions{Quiet: true}))

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, new, got)
}

func TestPatchFilesCleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old")
	badPatchPath := filepath.Join(dir, "bad-patch")
	outPath := filepath.Join(dir, "out")

	require.NoError(t, os.WriteFile(oldPath, []byte("whatever"), 0644))
	require.NoError(t, os.WriteFile(badPatchPath, []byte("not a patch"), 0644))

	err := PatchFiles(oldPath, badPatchPath, outPath, PatchOptions{Quiet: true})
	assert.Error(t, err, "expected an error applying a non-patch file")

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr), "expected partial output to be removed, stat err = %v", statErr)
}

func TestIndexFilesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src")
	indexPath := filepath.Join(dir, "src.idx")

	src := []byte("the rain in spain falls mainly on the plain")
	require.NoError(t, os.WriteFile(srcPath, src, 0644))
	require.NoError(t, IndexFiles(srcPath, indexPath, IndexOptions{}))

	f, err := os.Open(indexPath)
	require.NoError(t, err)
	defer f.Close()
	loaded, err := suffixarray.LoadIndex(f, len(src))
	require.NoError(t, err)
	assert.Equal(t, suffixarray.Build(src).SA(), loaded.SA())
}

func TestEndsleyFormatRoundTrip(t *testing.T) {
	old := []byte("one two three four five six seven eight nine ten")
	new := []byte("one two THREE four five SIX seven eight nine ten eleven")

	patch, err := DiffBytes(old, new, DiffOptions{Format: patchfmt.Endsley, Quiet: true})
	require.NoError(t, err)
	got, err := PatchBytes(old, patch, PatchOptions{Want: patchfmt.Endsley, Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, new, got)
}
