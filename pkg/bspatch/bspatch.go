// Package bspatch applies a patch produced by pkg/bsdiff to reconstruct
// new from old.
package bspatch

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/dstrick/go-bsdiff/pkg/bserr"
	"github.com/dstrick/go-bsdiff/pkg/patchfmt"
	"github.com/dstrick/go-bsdiff/pkg/util"
)

// writeBufferSize and copyBufferSize bound how much of the diff/extra
// segments are pulled from the codec and materialized at once. Exposed as
// package vars (not constants) so tests can exercise odd chunk boundaries,
// matching the pattern switch-st-go-bsdiff's bspatch_test.go drives against
// the teacher's original writeBufferSize/copyBufferSize.
var (
	writeBufferSize = 64 * 1024
	copyBufferSize  = 64 * 1024
)

// Bytes applies patch to oldfile using the format the patch declares and
// returns the reconstructed new file.
func Bytes(oldfile, patch []byte) ([]byte, error) {
	var buf util.BufWriter
	if err := patchb(bytesReaderAt(oldfile), bytesReaderAt(patch), &buf, patchfmt.Auto, zap.NewNop()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sizer is implemented by io.ReaderAt values that know their own length
// (bytes.Reader, io.SectionReader, bytesReaderAt). patchb uses it, when
// available, to validate the old-file cursor against |old| per spec.md
// 4.E before ever issuing a ReadAt against it.
type sizer interface {
	Size() int64
}

// Reader applies a patch (read from patch) to oldfile, writing the result
// to newfile.
func Reader(oldfile io.ReaderAt, newfile io.WriterAt, patch io.ReaderAt) error {
	return patchb(oldfile, patch, newfile, patchfmt.Auto, zap.NewNop())
}

// ReaderOptions is Reader with an explicit expected format and logger.
func ReaderOptions(oldfile io.ReaderAt, newfile io.WriterAt, patch io.ReaderAt, want patchfmt.Name, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	return patchb(oldfile, patch, newfile, want, log)
}

// File applies patchfile to oldfile, writing the result to newfile. On any
// failure the partially written newfile is removed.
func File(oldfile, newfile, patchfile string) error {
	oldF, err := os.Open(oldfile)
	if err != nil {
		return fmt.Errorf("could not open oldfile %q: %w", oldfile, err)
	}
	defer oldF.Close()
	patchF, err := os.Open(patchfile)
	if err != nil {
		return fmt.Errorf("could not open patchfile %q: %w", patchfile, err)
	}
	defer patchF.Close()
	newF, err := os.OpenFile(newfile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("could not create newfile %q: %w", newfile, err)
	}

	oldStat, err := oldF.Stat()
	if err != nil {
		_ = newF.Close()
		return fmt.Errorf("could not stat oldfile %q: %w", oldfile, err)
	}
	oldSection := io.NewSectionReader(oldF, 0, oldStat.Size())

	err = patchb(oldSection, patchF, newF, patchfmt.Auto, zap.NewNop())
	_ = newF.Close()
	if err != nil {
		os.Remove(newfile)
		return fmt.Errorf("bspatch: %w", err)
	}
	return nil
}

type bytesReaderAt []byte

func (b bytesReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(b)) {
		return 0, fmt.Errorf("offset out of range")
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b bytesReaderAt) Size() int64 { return int64(len(b)) }

// patchb drives codec (detected from patch, or matched against want) to
// replay old into res. Grounded on
// octarine-internal-go-bsdiff/pkg/bspatch/bspatch.go's patchb: same
// newpos/oldpos bookkeeping and the diffSize/copySize/skipSize triple per
// record, generalized to call an arbitrary patchfmt.Codec instead of
// opening three bzip2.Readers against fixed classic-format offsets inline.
func patchb(oldfile io.ReaderAt, patch io.ReaderAt, res io.WriterAt, want patchfmt.Name, log *zap.Logger) error {
	codec, err := patchfmt.Open(patch, want)
	if err != nil {
		return err
	}
	defer codec.Close()

	newSize, ok := codec.ExpectedNewSize()
	if !ok {
		return bserr.New(bserr.CorruptPatch, "patch format does not declare a new size")
	}
	if newSize < 0 {
		return bserr.Newf(bserr.CorruptPatch, "negative new size %d", newSize)
	}

	if newSize > 0 {
		if _, err := res.WriteAt([]byte{0}, newSize-1); err != nil {
			return err
		}
	}

	// oldSize, when the source implements sizer, bounds every old-file
	// cursor move against spec.md 4.E's "old_pos >= 0, old_pos + diff_size
	// <= |old|" invariant before a single byte is read. Sources that don't
	// implement sizer (an arbitrary caller-supplied io.ReaderAt) fall back
	// to the post-read short-read check below, which still refuses to
	// silently treat an out-of-bounds cursor as "no old bytes to add."
	oldSize := int64(-1)
	if sz, ok := oldfile.(sizer); ok {
		oldSize = sz.Size()
	}

	diffChunk := make([]byte, writeBufferSize)
	oldChunk := make([]byte, writeBufferSize)

	var newpos, oldpos int64
	var records int

	for newpos < newSize {
		diffSize, copySize, skipSize, err := codec.DecodeControl()
		if err != nil {
			return bserr.Wrap(bserr.CorruptPatch, "reading control record", err)
		}
		if diffSize < 0 || copySize < 0 {
			return bserr.New(bserr.CorruptPatch, "negative segment length in control record")
		}
		if newpos+diffSize > newSize {
			return bserr.New(bserr.CorruptPatch, "diff segment overruns new size")
		}
		if oldpos < 0 {
			return bserr.Newf(bserr.CorruptPatch, "old-file cursor %d is negative", oldpos)
		}
		if oldSize >= 0 && oldpos+diffSize > oldSize {
			return bserr.Newf(bserr.CorruptPatch, "diff segment [%d,%d) overruns old file of size %d", oldpos, oldpos+diffSize, oldSize)
		}

		for off := int64(0); off < diffSize; off += int64(writeBufferSize) {
			n := diffSize - off
			if n > int64(writeBufferSize) {
				n = int64(writeBufferSize)
			}
			segment, err := codec.DecodeDiff(int(n))
			if err != nil {
				return err
			}
			copy(diffChunk, segment)

			read, rerr := oldfile.ReadAt(oldChunk[:n], oldpos+off)
			if read < int(n) {
				return bserr.Newf(bserr.CorruptPatch, "old-file read at %d came up %d bytes short", oldpos+off, int(n)-read)
			}
			if rerr != nil && rerr != io.EOF {
				return bserr.Wrap(bserr.Io, "reading old file", rerr)
			}
			for j := 0; j < read; j++ {
				diffChunk[j] += oldChunk[j]
			}
			if _, err := res.WriteAt(diffChunk[:n], newpos+off); err != nil {
				return err
			}
		}
		newpos += diffSize
		oldpos += diffSize

		if newpos+copySize > newSize {
			return bserr.New(bserr.CorruptPatch, "extra segment overruns new size")
		}
		for off := int64(0); off < copySize; off += int64(copyBufferSize) {
			n := copySize - off
			if n > int64(copyBufferSize) {
				n = int64(copyBufferSize)
			}
			segment, err := codec.DecodeData(int(n))
			if err != nil {
				return err
			}
			if _, err := res.WriteAt(segment, newpos+off); err != nil {
				return err
			}
		}
		newpos += copySize

		oldpos += skipSize
		if oldpos < 0 || (oldSize >= 0 && oldpos > oldSize) {
			return bserr.Newf(bserr.CorruptPatch, "skip_size left old-file cursor at %d, outside [0,%d]", oldpos, oldSize)
		}

		records++
		log.Debug("applied control record",
			zap.Int("record", records),
			zap.Int64("diff_size", diffSize),
			zap.Int64("copy_size", copySize),
			zap.Int64("skip_size", skipSize),
		)
	}

	return nil
}
