package patchfmt

import (
	"io"

	"github.com/dstrick/go-bsdiff/pkg/bserr"
)

// DefaultLevel is the bzip2 compression level used unless low-memory mode
// is requested (pkg/driver threads BSDIFF_LOWMEM through to NewEncoder).
const DefaultLevel = 9

// LowMemLevel is the bzip2 block-size level used in low-memory mode. The
// dsnet/compress/bzip2 decoder has no separate "small" mode of its own (its
// block-decode tables scale with the level recorded in the stream, not a
// caller-chosen flag) so LOWMEM's effect on this codec is entirely on the
// encoder's chosen block size.
const LowMemLevel = 1

type registryEntry struct {
	name     Name
	magic    []byte
	newCodec func(level int) Codec
}

// registry is the compile-time format table (spec.md 9, "mutable global
// registry" redesign note: no init()-time map population, no runtime
// registration call). Entries are listed in ascending magic length so
// Detect never peeks more than the longest one needs.
var registry = []registryEntry{
	{Classic, classicMagic, newClassicCodec},
	{Endsley, endsleyMagic, newEndsleyCodec},
}

func maxMagicLen() int {
	m := 0
	for _, e := range registry {
		if len(e.magic) > m {
			m = len(e.magic)
		}
	}
	return m
}

// Detect reports which registered format r's leading bytes match, reading
// no more than the longest registered magic. It returns
// bserr.ErrUnknownFormat if nothing matches, including for an empty or
// short input.
func Detect(r io.ReaderAt) (Name, error) {
	buf := make([]byte, maxMagicLen())
	n, err := r.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return "", bserr.Wrap(bserr.Io, "reading magic", err)
	}
	buf = buf[:n]

	for _, e := range registry {
		if len(buf) < len(e.magic) {
			continue
		}
		if string(buf[:len(e.magic)]) == string(e.magic) {
			return e.name, nil
		}
	}
	return "", bserr.ErrUnknownFormat
}

// NewEncoder constructs a fresh encode-side Codec for the named format.
// level is the bzip2 compression level (see DefaultLevel/LowMemLevel).
func NewEncoder(name Name, level int) (Codec, error) {
	for _, e := range registry {
		if e.name == name {
			return e.newCodec(level), nil
		}
	}
	return nil, bserr.Newf(bserr.UnknownFormat, "no encoder registered for format %q", name)
}

// Open detects r's format and, if want is not Auto, enforces that it
// matches. On success it returns a decode-ready Codec (ReadStart has
// already been called).
func Open(r io.ReaderAt, want Name) (Codec, error) {
	detected, err := Detect(r)
	if err != nil {
		return nil, err
	}
	if want != Auto && want != "" && want != detected {
		return nil, bserr.Wrap(bserr.FormatMismatch, string("requested "+want+", found "+detected), bserr.ErrFormatMismatch)
	}

	codec, err := NewEncoder(detected, DefaultLevel)
	if err != nil {
		return nil, err
	}
	if err := codec.ReadStart(r); err != nil {
		return nil, err
	}
	return codec, nil
}
