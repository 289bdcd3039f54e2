package suffixarray

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dstrick/go-bsdiff/pkg/bserr"
)

// indexMagic is the 13-byte header every serialized index file starts
// with: the 12 ASCII bytes "SUFFIX ARRAY" plus one NUL terminator.
var indexMagic = []byte("SUFFIX ARRAY\x00")

// widthFor returns the narrowest of 1, 2, 4, 8 bytes that can represent
// every value in [0, n].
func widthFor(n int) int {
	switch {
	case n <= 0xFF:
		return 1
	case n <= 0xFFFF:
		return 2
	case n <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}

// Serialize writes idx in the index file format: the 13-byte magic, one
// element-width byte, then idx.SA() as that many little-endian integers of
// that width.
func (idx *Index) Serialize(w io.Writer) error {
	if _, err := w.Write(indexMagic); err != nil {
		return bserr.Wrap(bserr.Io, "writing index magic", err)
	}

	width := widthFor(idx.n)
	if _, err := w.Write([]byte{byte(width)}); err != nil {
		return bserr.Wrap(bserr.Io, "writing index unit width", err)
	}

	buf := make([]byte, len(idx.SA())*width)
	sa := idx.SA()
	for i, v := range sa {
		off := i * width
		switch width {
		case 1:
			buf[off] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(buf[off:], uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(buf[off:], uint32(v))
		case 8:
			binary.LittleEndian.PutUint64(buf[off:], uint64(v))
		}
	}
	if _, err := w.Write(buf); err != nil {
		return bserr.Wrap(bserr.Io, "writing index array", err)
	}
	return nil
}

// LoadIndex reads an index file for a buffer of length n, validating the
// header and unit width and reconstructing the searchable suffix array.
func LoadIndex(r io.Reader, n int) (*Index, error) {
	header := make([]byte, len(indexMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, bserr.Wrap(bserr.CorruptIndex, "reading index header", err)
	}
	for i := range indexMagic {
		if header[i] != indexMagic[i] {
			return nil, bserr.New(bserr.CorruptIndex, "bad index magic")
		}
	}

	widthBuf := make([]byte, 1)
	if _, err := io.ReadFull(r, widthBuf); err != nil {
		return nil, bserr.Wrap(bserr.CorruptIndex, "reading index unit width", err)
	}
	width := int(widthBuf[0])
	switch width {
	case 1, 2, 4, 8:
	default:
		return nil, bserr.Newf(bserr.CorruptIndex, "unit width %d not in {1,2,4,8}", width)
	}

	buf := make([]byte, n*width)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, bserr.Wrap(bserr.CorruptIndex, fmt.Sprintf("reading %d index elements of width %d", n, width), err)
	}

	sa := make([]int, n)
	for i := range sa {
		off := i * width
		switch width {
		case 1:
			sa[i] = int(buf[off])
		case 2:
			sa[i] = int(binary.LittleEndian.Uint16(buf[off:]))
		case 4:
			sa[i] = int(binary.LittleEndian.Uint32(buf[off:]))
		case 8:
			sa[i] = int(binary.LittleEndian.Uint64(buf[off:]))
		}
		if sa[i] < 0 || sa[i] >= n {
			return nil, bserr.Newf(bserr.CorruptIndex, "index element %d out of range: %d", i, sa[i])
		}
	}

	return fromSA(sa, n), nil
}
