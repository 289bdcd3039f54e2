package bspatch

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstrick/go-bsdiff/pkg/bserr"
	"github.com/dstrick/go-bsdiff/pkg/util"
)

// oldfile/newfilecomp/patchfile are a byte-exact BSDIFF40 patch produced by
// a real bsdiff binary, carried verbatim from switch-st-go-bsdiff's
// bspatch_test.go - a cross-implementation compatibility fixture, not
// something this module generated itself.
var (
	oldfile = []byte{
		0x66, 0xFF, 0xD1, 0x55, 0x56, 0x10, 0x30, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xD1,
	}
	newfilecomp = []byte{
		0x66, 0xFF, 0xD1, 0x55, 0x56, 0x10, 0x30, 0x00,
		0x44, 0x45, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xD1, 0xFF, 0xD1,
	}
	patchfile = []byte{
		0x42, 0x53, 0x44, 0x49, 0x46, 0x46, 0x34, 0x30,
		0x29, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x2A, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x13, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,

		0x42, 0x5A, 0x68, 0x39, 0x31, 0x41, 0x59, 0x26,
		0x53, 0x59, 0xDA, 0xE4, 0x46, 0xF2, 0x00, 0x00,
		0x05, 0xC0, 0x00, 0x4A, 0x09, 0x20, 0x00, 0x22,
		0x34, 0xD9, 0x06, 0x06, 0x4B, 0x21, 0xEE, 0x17,
		0x72, 0x45, 0x38, 0x50, 0x90, 0xDA, 0xE4, 0x46,
		0xF2, 0x42, 0x5A, 0x68, 0x39, 0x31, 0x41, 0x59,
		0x26, 0x53, 0x59, 0x30, 0x88, 0x1C, 0x89, 0x00,
		0x00, 0x02, 0xC4, 0x00, 0x44, 0x00, 0x06, 0x00,
		0x20, 0x00, 0x21, 0x21, 0xA0, 0xC3, 0x1B, 0x03,
		0x3C, 0x5D, 0xC9, 0x14, 0xE1, 0x42, 0x40, 0xC2,
		0x20, 0x72, 0x24, 0x42, 0x5A, 0x68, 0x39, 0x31,
		0x41, 0x59, 0x26, 0x53, 0x59, 0x65, 0x25, 0x30,
		0x43, 0x00, 0x00, 0x00, 0x40, 0x02, 0xC0, 0x00,
		0x20, 0x00, 0x00, 0x00, 0xA0, 0x00, 0x22, 0x1F,
		0xA4, 0x19, 0x82, 0x58, 0x5D, 0xC9, 0x14, 0xE1,
		0x42, 0x41, 0x94, 0x94, 0xC1, 0x0C,
	}
)

func TestFixturePatch(t *testing.T) {
	tests := []struct {
		wbufsz  int
		cpbufsz int
	}{
		{50, 50},
		{19, 19},
		{1, 4},
		{4, 1},
		{2, 4},
		{4, 2},
		{3, 4},
		{4, 3},
		{4, 4},
		{7, 9},
		{9, 7},
	}

	defer func() {
		writeBufferSize = 64 * 1024
		copyBufferSize = 64 * 1024
	}()

	for _, test := range tests {
		writeBufferSize = test.wbufsz
		copyBufferSize = test.cpbufsz

		desc := fmt.Sprintf("writeBufferSize: %v, copyBufferSize: %v", writeBufferSize, copyBufferSize)
		newfile, err := Bytes(oldfile, patchfile)
		if !assert.NoErrorf(t, err, "with %s", desc) {
			continue
		}
		assert.Equalf(t, newfilecomp, newfile, "with %s", desc)
	}
}

func TestFixtureReader(t *testing.T) {
	oldrdr := bytes.NewReader(oldfile)
	prdr := bytes.NewReader(patchfile)
	newf := new(util.BufWriter)
	require.NoError(t, Reader(oldrdr, newf, prdr))

	buf := newf.Bytes()[:8]
	assert.Equal(t, []byte{0x66, 0xFF, 0xD1, 0x55, 0x56, 0x10, 0x30, 0x00}, buf)
}

func TestFixtureFile(t *testing.T) {
	tf0, err := os.CreateTemp("", "")
	require.NoError(t, err)
	t0n := tf0.Name()
	tf1, err := os.CreateTemp("", "")
	require.NoError(t, err)
	t1n := tf1.Name()
	defer os.Remove(t0n)
	defer os.Remove(t1n)

	_, err = tf0.Write(oldfile)
	require.NoError(t, err)
	_, err = tf1.Write(patchfile)
	require.NoError(t, err)
	tf0.Close()
	tf1.Close()

	tp, err := os.CreateTemp("", "")
	require.NoError(t, err)
	tpp := tp.Name()
	tp.Close()
	defer os.Remove(tpp)

	require.NoError(t, File(t0n, tpp, t1n))

	got, err := os.ReadFile(tpp)
	require.NoError(t, err)
	assert.Equal(t, newfilecomp, got)
}

func TestFileErr(t *testing.T) {
	err := File("__nil__", "__nil__", "__nil__")
	assert.Error(t, err, "expected error opening missing oldfile")

	tfl, err := os.CreateTemp("", "")
	require.NoError(t, err)
	tfl.Write(oldfile)
	fn := tfl.Name()
	tfl.Close()
	defer os.Remove(fn)

	err = File(fn, "__nil__", "__nil__")
	assert.Error(t, err, "expected error opening missing patchfile")
}

func TestCorruptHeader(t *testing.T) {
	corruptPatch := []byte{
		0x41, 0x53, 0x44, 0x49, 0x46, 0x46, 0x34, 0x30,
		0x29, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x2A, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x13, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	_, err := Bytes(corruptPatch, corruptPatch[:30])
	assert.Error(t, err, "header should be rejected as unrecognized")

	corruptPatch[0] = 0x42
	corruptLen := []byte{100, 0, 0, 0, 0, 0, 0, 128}
	copy(corruptPatch[8:], corruptLen)
	_, err = Bytes(oldfile, corruptPatch)
	require.Error(t, err, "header should be corrupt")

	var berr *bserr.Error
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, bserr.CorruptPatch, berr.Kind)
}

func TestInvalidChecksum(t *testing.T) {
	mypatch := append(make([]byte, 0, len(patchfile)), patchfile...)
	mypatch[48] = 0

	_, err := Bytes(oldfile, mypatch)
	assert.Error(t, err, "checksum should not match")
}
