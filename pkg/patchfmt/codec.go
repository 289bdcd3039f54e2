// Package patchfmt implements the two on-disk patch formats (classic
// "BSDIFF40" and Endsley "ENDSLEY/BSDIFF43") behind one Codec interface, and
// the format registry that detects which of them a given patch stream uses.
//
// REDESIGN FLAG (spec.md 9, "Polymorphism over formats"): the reference
// implementation this module is compatible with dispatches through runtime
// subtypes of an abstract Patch class. Here that becomes a plain interface
// with exactly two implementations, selected through a compile-time table
// (registry.go) rather than a mutable global map.
package patchfmt

import "io"

// Name identifies a patch format.
type Name string

const (
	// Classic is the three-substream "BSDIFF40" format.
	Classic Name = "classic"
	// Endsley is the single-stream interleaved "ENDSLEY/BSDIFF43" format.
	Endsley Name = "endsley"
	// Auto means "whatever the magic says" - only valid as a request to
	// Open, never as a detected result.
	Auto Name = "auto"
)

// Codec is the capability set spec.md 3 calls for: write_start,
// encode_control, encode_diff, encode_data, write_finish on the encode
// side; read_start, decode_control, decode_diff, decode_data on the decode
// side. One Codec value is scoped to a single encode pass XOR a single
// decode pass - never both at once.
type Codec interface {
	Name() Name

	// WriteStart begins an encode pass. newSize is the final size of
	// "new", known up front since both inputs are loaded whole.
	WriteStart(newSize int64) error
	// EncodeControl writes one control record.
	EncodeControl(diffSize, copySize, skipSize int64) error
	// EncodeDiff writes diffSize bytes of the diff segment.
	EncodeDiff(b []byte) error
	// EncodeData writes copySize bytes of the extra segment, verbatim.
	EncodeData(b []byte) error
	// Finish commits any buffered sub-streams (back-patching lengths
	// where the format requires it, e.g. classic's header) and returns
	// the complete patch bytes. It is always safe to call exactly once
	// after the last EncodeControl/EncodeDiff/EncodeData call.
	Finish() ([]byte, error)

	// ReadStart begins a decode pass: parses the header and positions
	// whatever sub-stream readers the format needs.
	ReadStart(r io.ReaderAt) error
	// ExpectedNewSize reports the final size of "new" if the format
	// encodes it in the header (Endsley does, classic does too, but the
	// capability is kept optional per spec.md 9's "expected_new_size"
	// redesign note so a future format without an up-front size is not
	// forced to fabricate one).
	ExpectedNewSize() (int64, bool)
	// DecodeControl reads the next control record. It returns io.EOF,
	// and only io.EOF, when the stream ends cleanly on a record
	// boundary; any other failure (including a partial record) is a
	// *bserr.Error of kind CorruptPatch.
	DecodeControl() (diffSize, copySize, skipSize int64, err error)
	// DecodeDiff reads exactly n bytes from the diff sub-stream.
	DecodeDiff(n int) ([]byte, error)
	// DecodeData reads exactly n bytes from the extra sub-stream.
	DecodeData(n int) ([]byte, error)
	// Close releases any decompressing readers opened by ReadStart.
	Close() error
}
