package patchfmt

import (
	"bytes"
	"io"
	"math"

	"github.com/dsnet/compress/bzip2"

	"github.com/dstrick/go-bsdiff/pkg/bserr"
	"github.com/dstrick/go-bsdiff/pkg/binint"
)

// endsleyMagic is the 16-byte magic of the single-stream format.
var endsleyMagic = []byte("ENDSLEY/BSDIFF43")

const endsleyHeaderLen = 24 // 16-byte magic + 8-byte new_size

// endsleyCodec implements Codec for the Endsley format: a 24-byte header
// (magic, new size) followed by a single bzip2 stream in which control
// records, diff bytes, and extra bytes are interleaved record-by-record.
//
// No repo in the retrieval pack carries an Endsley reference implementation
// (see DESIGN.md); this is built from spec.md 4.G directly, in the naming
// and error-handling idiom of the classic codec above.
type endsleyCodec struct {
	level int

	newSize int64
	innerBuf bytes.Buffer
	innerW   *bzip2.Writer

	decNewSize int64
	innerR     *bzip2.Reader
}

func newEndsleyCodec(level int) Codec {
	return &endsleyCodec{level: level}
}

func (c *endsleyCodec) Name() Name { return Endsley }

func (c *endsleyCodec) WriteStart(newSize int64) error {
	c.newSize = newSize
	var err error
	c.innerW, err = bzip2.NewWriter(&c.innerBuf, &bzip2.WriterConfig{Level: c.level})
	if err != nil {
		return bserr.Wrap(bserr.Io, "opening endsley stream writer", err)
	}
	return nil
}

func (c *endsleyCodec) EncodeControl(diffSize, copySize, skipSize int64) error {
	var buf [3 * binint.Size]byte
	diffEnc := binint.Encode(diffSize)
	copyEnc := binint.Encode(copySize)
	skipEnc := binint.Encode(skipSize)
	copy(buf[0:8], diffEnc[:])
	copy(buf[8:16], copyEnc[:])
	copy(buf[16:24], skipEnc[:])
	if _, err := c.innerW.Write(buf[:]); err != nil {
		return bserr.Wrap(bserr.Io, "writing control record", err)
	}
	return nil
}

func (c *endsleyCodec) EncodeDiff(b []byte) error {
	if _, err := c.innerW.Write(b); err != nil {
		return bserr.Wrap(bserr.Io, "writing diff segment", err)
	}
	return nil
}

func (c *endsleyCodec) EncodeData(b []byte) error {
	if _, err := c.innerW.Write(b); err != nil {
		return bserr.Wrap(bserr.Io, "writing extra segment", err)
	}
	return nil
}

func (c *endsleyCodec) Finish() ([]byte, error) {
	if err := c.innerW.Close(); err != nil {
		return nil, bserr.Wrap(bserr.Io, "closing endsley stream", err)
	}

	header := make([]byte, endsleyHeaderLen)
	copy(header, endsleyMagic)
	binint.PutInt64(c.newSize, header[16:24])

	out := make([]byte, 0, endsleyHeaderLen+c.innerBuf.Len())
	out = append(out, header...)
	out = append(out, c.innerBuf.Bytes()...)
	return out, nil
}

func (c *endsleyCodec) ReadStart(r io.ReaderAt) error {
	header := make([]byte, endsleyHeaderLen)
	n, err := r.ReadAt(header, 0)
	if err != nil && err != io.EOF {
		return bserr.Wrap(bserr.Io, "reading endsley header", err)
	}
	if n < endsleyHeaderLen {
		return bserr.New(bserr.CorruptPatch, "patch shorter than endsley header")
	}
	if !bytes.Equal(header[:16], endsleyMagic) {
		return bserr.New(bserr.CorruptPatch, "bad endsley magic")
	}

	newSize := binint.Int64(header[16:24])
	if newSize < 0 {
		return bserr.Newf(bserr.CorruptPatch, "negative new_size in header: %d", newSize)
	}
	c.decNewSize = newSize

	streamStart := int64(endsleyHeaderLen)
	c.innerR, err = bzip2.NewReader(io.NewSectionReader(r, streamStart, math.MaxInt64-streamStart), nil)
	if err != nil {
		return bserr.Wrap(bserr.CorruptPatch, "opening endsley stream", err)
	}
	return nil
}

func (c *endsleyCodec) ExpectedNewSize() (int64, bool) {
	return c.decNewSize, true
}

// DecodeControl reads the next interleaved control record. Per spec.md
// 4.G, a clean end-of-stream can only land exactly on a record boundary:
// zero bytes read before io.EOF. Any partial read (io.ErrUnexpectedEOF, or
// a plain io.EOF after some but not all of the 24 header bytes) is
// CorruptPatch.
func (c *endsleyCodec) DecodeControl() (diffSize, copySize, skipSize int64, err error) {
	buf := make([]byte, 3*binint.Size)
	n, rerr := io.ReadFull(c.innerR, buf)
	if rerr == io.EOF && n == 0 {
		return 0, 0, 0, io.EOF
	}
	if rerr != nil {
		return 0, 0, 0, bserr.Wrap(bserr.CorruptPatch, "reading control record", rerr)
	}
	diffSize = binint.Int64(buf[0:8])
	copySize = binint.Int64(buf[8:16])
	skipSize = binint.Int64(buf[16:24])
	return diffSize, copySize, skipSize, nil
}

func (c *endsleyCodec) DecodeDiff(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.innerR, buf); err != nil {
		return nil, bserr.Wrap(bserr.CorruptPatch, "reading diff segment", err)
	}
	return buf, nil
}

func (c *endsleyCodec) DecodeData(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.innerR, buf); err != nil {
		return nil, bserr.Wrap(bserr.CorruptPatch, "reading extra segment", err)
	}
	return buf, nil
}

func (c *endsleyCodec) Close() error {
	if c.innerR != nil {
		return c.innerR.Close()
	}
	return nil
}
