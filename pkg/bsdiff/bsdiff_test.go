package bsdiff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dstrick/go-bsdiff/pkg/bspatch"
	"github.com/dstrick/go-bsdiff/pkg/patchfmt"
	"github.com/dstrick/go-bsdiff/pkg/suffixarray"
)

func roundTrip(t *testing.T, old, new []byte, format patchfmt.Name) {
	t.Helper()
	patch, err := BytesOptions(old, new, Options{Format: format})
	require.NoError(t, err)
	got, err := bspatch.Bytes(old, patch)
	require.NoError(t, err)
	require.Equal(t, new, got)
}

func TestRoundTripClassic(t *testing.T) {
	old := []byte("the quick brown fox jumps over the lazy dog")
	new := []byte("the quick brown fox leaps over the lazy dogs and cats")
	roundTrip(t, old, new, patchfmt.Classic)
}

func TestRoundTripEndsley(t *testing.T) {
	old := []byte("the quick brown fox jumps over the lazy dog")
	new := []byte("the quick brown fox leaps over the lazy dogs and cats")
	roundTrip(t, old, new, patchfmt.Endsley)
}

func TestRoundTripEmptyNew(t *testing.T) {
	old := []byte("some old content that shrinks to nothing")
	roundTrip(t, old, []byte{}, patchfmt.Classic)
}

func TestRoundTripEmptyOld(t *testing.T) {
	new := []byte("brand new content with nothing to diff against")
	roundTrip(t, []byte{}, new, patchfmt.Classic)
}

func TestRoundTripIdentical(t *testing.T) {
	same := []byte("nothing changed here at all, not a single byte")
	roundTrip(t, same, same, patchfmt.Classic)
}

func TestRoundTripOldLongerThanNew(t *testing.T) {
	roundTrip(t, []byte("xy"), []byte("x"), patchfmt.Classic)
	roundTrip(t, []byte("xy"), []byte("x"), patchfmt.Endsley)
}

func TestRoundTripOldMuchLongerThanNew(t *testing.T) {
	old := []byte("the quick brown fox jumps over the lazy dog and then some")
	new := []byte("the quick brown")
	roundTrip(t, old, new, patchfmt.Classic)
}

func TestRoundTripWithIndex(t *testing.T) {
	old := []byte("abcdefghijklmnopqrstuvwxyz0123456789")
	new := []byte("abcdefghijZZZmnopqrstuvwxyz0123456789!!!")

	patch, err := BytesOptions(old, new, Options{Index: suffixarray.Build(old)})
	require.NoError(t, err)
	got, err := bspatch.Bytes(old, patch)
	require.NoError(t, err)
	require.Equal(t, new, got)
}

func TestRoundTripRepetitive(t *testing.T) {
	old := bytes.Repeat([]byte("abcABC123"), 500)
	new := append(append([]byte{}, old[:1000]...), bytes.Repeat([]byte("xyz"), 200)...)
	new = append(new, old[1000:]...)
	roundTrip(t, old, new, patchfmt.Classic)
}
