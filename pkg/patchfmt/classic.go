package patchfmt

import (
	"bytes"
	"io"
	"math"

	"github.com/dsnet/compress/bzip2"

	"github.com/dstrick/go-bsdiff/pkg/bserr"
	"github.com/dstrick/go-bsdiff/pkg/binint"
)

// classicMagic is the 8-byte magic of the three-substream format, after
// Colin Percival's original bsdiff: "BSDIFF40".
var classicMagic = []byte("BSDIFF40")

const classicHeaderLen = 32

// classicCodec implements Codec for the classic format: a 32-byte header
// (magic, compressed control length, compressed diff length, new size)
// followed by three bzip2 sub-streams, consumed in lockstep.
//
// Grounded on octarine-internal-go-bsdiff/pkg/bsdiff/bsdiff.go's diffb and
// pkg/bspatch/bspatch.go's patchb: same header layout, same back-patch
// dance, same three-SectionReader decode. The teacher's diffb never
// actually wrote the compressed extra block (eb/eblen were computed but
// never passed to a bzip2.Writer) even though its own patchb expects one -
// a latent bug that would corrupt any patch whose control records carry a
// nonzero copy_size. This codec writes all three streams.
type classicCodec struct {
	level int

	// encode side
	newSize  int64
	ctrlBuf  bytes.Buffer
	ctrlW    *bzip2.Writer
	diffBuf  bytes.Buffer
	diffW    *bzip2.Writer
	extraBuf bytes.Buffer
	extraW   *bzip2.Writer

	// decode side
	decNewSize int64
	ctrlR      *bzip2.Reader
	diffR      *bzip2.Reader
	extraR     *bzip2.Reader
}

// newClassicCodec constructs a classic codec. level is the bzip2
// compression level (1-9); see pkg/driver's LOWMEM handling.
func newClassicCodec(level int) Codec {
	return &classicCodec{level: level}
}

func (c *classicCodec) Name() Name { return Classic }

func (c *classicCodec) WriteStart(newSize int64) error {
	c.newSize = newSize
	cfg := &bzip2.WriterConfig{Level: c.level}

	var err error
	if c.ctrlW, err = bzip2.NewWriter(&c.ctrlBuf, cfg); err != nil {
		return bserr.Wrap(bserr.Io, "opening control stream writer", err)
	}
	if c.diffW, err = bzip2.NewWriter(&c.diffBuf, cfg); err != nil {
		return bserr.Wrap(bserr.Io, "opening diff stream writer", err)
	}
	if c.extraW, err = bzip2.NewWriter(&c.extraBuf, cfg); err != nil {
		return bserr.Wrap(bserr.Io, "opening extra stream writer", err)
	}
	return nil
}

func (c *classicCodec) EncodeControl(diffSize, copySize, skipSize int64) error {
	var buf [3 * binint.Size]byte
	diffEnc := binint.Encode(diffSize)
	copyEnc := binint.Encode(copySize)
	skipEnc := binint.Encode(skipSize)
	copy(buf[0:8], diffEnc[:])
	copy(buf[8:16], copyEnc[:])
	copy(buf[16:24], skipEnc[:])
	if _, err := c.ctrlW.Write(buf[:]); err != nil {
		return bserr.Wrap(bserr.Io, "writing control record", err)
	}
	return nil
}

func (c *classicCodec) EncodeDiff(b []byte) error {
	if _, err := c.diffW.Write(b); err != nil {
		return bserr.Wrap(bserr.Io, "writing diff segment", err)
	}
	return nil
}

func (c *classicCodec) EncodeData(b []byte) error {
	if _, err := c.extraW.Write(b); err != nil {
		return bserr.Wrap(bserr.Io, "writing extra segment", err)
	}
	return nil
}

// Finish closes all three sub-stream writers (committing whatever they had
// buffered), then assembles the header once the compressed lengths are
// known - answering spec.md 9's open question about the two-argument API
// silently dropping write_finish's return: callers of pkg/bsdiff always go
// through this method, so the commit can never be skipped.
func (c *classicCodec) Finish() ([]byte, error) {
	if err := c.ctrlW.Close(); err != nil {
		return nil, bserr.Wrap(bserr.Io, "closing control stream", err)
	}
	if err := c.diffW.Close(); err != nil {
		return nil, bserr.Wrap(bserr.Io, "closing diff stream", err)
	}
	if err := c.extraW.Close(); err != nil {
		return nil, bserr.Wrap(bserr.Io, "closing extra stream", err)
	}

	header := make([]byte, classicHeaderLen)
	copy(header, classicMagic)
	binint.PutInt64(int64(c.ctrlBuf.Len()), header[8:16])
	binint.PutInt64(int64(c.diffBuf.Len()), header[16:24])
	binint.PutInt64(c.newSize, header[24:32])

	out := make([]byte, 0, classicHeaderLen+c.ctrlBuf.Len()+c.diffBuf.Len()+c.extraBuf.Len())
	out = append(out, header...)
	out = append(out, c.ctrlBuf.Bytes()...)
	out = append(out, c.diffBuf.Bytes()...)
	out = append(out, c.extraBuf.Bytes()...)
	return out, nil
}

func (c *classicCodec) ReadStart(r io.ReaderAt) error {
	header := make([]byte, classicHeaderLen)
	n, err := r.ReadAt(header, 0)
	if err != nil && err != io.EOF {
		return bserr.Wrap(bserr.Io, "reading classic header", err)
	}
	if n < classicHeaderLen {
		return bserr.New(bserr.CorruptPatch, "patch shorter than classic header")
	}
	if !bytes.Equal(header[:8], classicMagic) {
		return bserr.New(bserr.CorruptPatch, "bad classic magic")
	}

	ctrlLen := binint.Int64(header[8:16])
	diffLen := binint.Int64(header[16:24])
	newSize := binint.Int64(header[24:32])
	if ctrlLen < 0 || diffLen < 0 || newSize < 0 {
		return bserr.Newf(bserr.CorruptPatch, "negative header field (ctrlLen=%d diffLen=%d newSize=%d)", ctrlLen, diffLen, newSize)
	}
	c.decNewSize = newSize

	ctrlStart := int64(classicHeaderLen)
	diffStart := ctrlStart + ctrlLen
	extraStart := diffStart + diffLen

	if c.ctrlR, err = bzip2.NewReader(io.NewSectionReader(r, ctrlStart, ctrlLen), nil); err != nil {
		return bserr.Wrap(bserr.CorruptPatch, "opening control stream", err)
	}
	if c.diffR, err = bzip2.NewReader(io.NewSectionReader(r, diffStart, diffLen), nil); err != nil {
		return bserr.Wrap(bserr.CorruptPatch, "opening diff stream", err)
	}
	if c.extraR, err = bzip2.NewReader(io.NewSectionReader(r, extraStart, math.MaxInt64-extraStart), nil); err != nil {
		return bserr.Wrap(bserr.CorruptPatch, "opening extra stream", err)
	}
	return nil
}

func (c *classicCodec) ExpectedNewSize() (int64, bool) {
	return c.decNewSize, true
}

func (c *classicCodec) DecodeControl() (diffSize, copySize, skipSize int64, err error) {
	buf := make([]byte, 3*binint.Size)
	n, rerr := io.ReadFull(c.ctrlR, buf)
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

func (c *classicCodec) DecodeDiff(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.diffR, buf); err != nil {
		return nil, bserr.Wrap(bserr.CorruptPatch, "reading diff segment", err)
	}
	return buf, nil
}

func (c *classicCodec) DecodeData(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.extraR, buf); err != nil {
		return nil, bserr.Wrap(bserr.CorruptPatch, "reading extra segment", err)
	}
	return buf, nil
}

func (c *classicCodec) Close() error {
	if c.ctrlR != nil {
		_ = c.ctrlR.Close()
	}
	if c.diffR != nil {
		_ = c.diffR.Close()
	}
	if c.extraR != nil {
		_ = c.extraR.Close()
	}
	return nil
}
