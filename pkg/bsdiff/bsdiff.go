// Package bsdiff implements the scan/extend/overlap diff generator: given
// an old and a new byte buffer, it emits a patch that bspatch can replay to
// reconstruct new from old.
package bsdiff

import (
	"io"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/dstrick/go-bsdiff/pkg/patchfmt"
	"github.com/dstrick/go-bsdiff/pkg/suffixarray"
)

// Options controls how a diff is generated. The zero value is a silent,
// non-progress-reporting diff against the classic format at DefaultLevel.
type Options struct {
	// Format selects the on-disk patch format. The zero value (empty
	// string) is treated as patchfmt.Classic.
	Format patchfmt.Name
	// Level is the bzip2 compression level passed to the codec. Zero
	// means patchfmt.DefaultLevel.
	Level int
	// Index, when non-nil, is used instead of building a fresh suffix
	// array over old - the caller already has one from a prior
	// bsindex run.
	Index *suffixarray.Index
	// Logger receives structured scan progress. nil means zap.NewNop().
	Logger *zap.Logger
	// Progress, when non-nil, is advanced once per emitted record by the
	// number of new bytes that record covers (diff_size + copy_size), so
	// it reaches len(new) when the diff completes.
	Progress *progressbar.ProgressBar
}

func (o Options) format() patchfmt.Name {
	if o.Format == "" {
		return patchfmt.Classic
	}
	return o.Format
}

func (o Options) level() int {
	if o.Level == 0 {
		return patchfmt.DefaultLevel
	}
	return o.Level
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Bytes computes a patch taking oldbs to newbs, using default options.
func Bytes(oldbs, newbs []byte) ([]byte, error) {
	return BytesOptions(oldbs, newbs, Options{})
}

// BytesOptions computes a patch taking oldbs to newbs per opts.
func BytesOptions(oldbs, newbs []byte, opts Options) ([]byte, error) {
	codec, err := patchfmt.NewEncoder(opts.format(), opts.level())
	if err != nil {
		return nil, err
	}

	idx := opts.Index
	if idx == nil {
		idx = suffixarray.Build(oldbs)
	}

	if err := diff(idx, oldbs, newbs, codec, opts); err != nil {
		return nil, err
	}
	return codec.Finish()
}

// Stream reads old and new whole from the given seekers and writes a patch
// to diffbin, using default options.
func Stream(oldbin, newbin io.ReadSeeker, diffbin io.Writer) error {
	return StreamOptions(oldbin, newbin, diffbin, Options{})
}

// StreamOptions reads old and new whole from the given seekers and writes
// a patch to diffbin per opts.
func StreamOptions(oldbin, newbin io.ReadSeeker, diffbin io.Writer, opts Options) error {
	pold, err := readAll(oldbin)
	if err != nil {
		return err
	}
	pnew, err := readAll(newbin)
	if err != nil {
		return err
	}
	out, err := BytesOptions(pold, pnew, opts)
	if err != nil {
		return err
	}
	_, err = diffbin.Write(out)
	return err
}

func readAll(rs io.ReadSeeker) ([]byte, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(rs, buf); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

// diff runs the scan/extend/overlap loop against idx, emitting control,
// diff, and extra records through codec. Grounded on
// octarine-internal-go-bsdiff/pkg/bsdiff/bsdiff.go's diffb: same loop
// structure and variable roles (scan/lastscan/lastpos/lastoffset, the
// forward/backward extension scores Sf/Sb, the overlap split), generalized
// to call idx.Search instead of an inlined qsufsort+search and to emit
// through a patchfmt.Codec instead of writing BSDIFF40 bytes inline.
func diff(idx *suffixarray.Index, oldbin, newbin []byte, codec patchfmt.Codec, opts Options) error {
	log := opts.logger()
	oldsize := len(oldbin)
	newsize := len(newbin)

	if err := codec.WriteStart(int64(newsize)); err != nil {
		return err
	}

	var scan, ln, lastscan, lastpos, lastoffset int
	var oldscore, scsc int
	var pos int
	var s, Sf, lenf, Sb, lenb int
	var overlap, Ss, lens int
	var blocks int

	for scan < newsize {
		oldscore = 0
		scan += ln
		scsc = scan

		for scan < newsize {
			scan++
			pos, ln = idx.Search(oldbin, newbin, scan)

			for scsc < scan+ln {
				scsc++
				if scsc < newsize && scsc+lastoffset < oldsize && oldbin[scsc+lastoffset] == newbin[scsc] {
					oldscore++
				}
			}
			if ln == oldscore && ln != 0 {
				break
			}
			if ln > oldscore+8 {
				break
			}
			if scan < newsize && scan+lastoffset < oldsize && oldbin[scan+lastoffset] == newbin[scan] {
				oldscore--
			}
		}

		if ln == oldscore && scan != newsize {
			continue
		}

		s, Sf, lenf = 0, 0, 0
		i := 0
		for lastscan+i < scan && lastpos+i < oldsize {
			if oldbin[lastpos+i] == newbin[lastscan+i] {
				s++
			}
			i++
			if s*2-i > Sf*2-lenf {
				Sf = s
				lenf = i
			}
		}

		lenb = 0
		if scan < newsize {
			s, Sb = 0, 0
			for i = 1; scan >= lastscan+i && pos >= i; i++ {
				if oldbin[pos-i] == newbin[scan-i] {
					s++
				}
				if s*2-i > Sb*2-lenb {
					Sb = s
					lenb = i
				}
			}
		}

		if lastscan+lenf > scan-lenb {
			overlap = (lastscan + lenf) - (scan - lenb)
			s, Ss, lens = 0, 0, 0
			for i = 0; i < overlap; i++ {
				if newbin[lastscan+lenf-overlap+i] == oldbin[lastpos+lenf-overlap+i] {
					s++
				}
				if newbin[scan-lenb+i] == oldbin[pos-lenb+i] {
					s--
				}
				if s > Ss {
					Ss = s
					lens = i + 1
				}
			}
			lenf += lens - overlap
			lenb -= lens
		}

		diffSeg := make([]byte, lenf)
		for i = 0; i < lenf; i++ {
			diffSeg[i] = newbin[lastscan+i] - oldbin[lastpos+i]
		}

		extraLen := (scan - lenb) - (lastscan + lenf)
		extraSeg := newbin[lastscan+lenf : lastscan+lenf+extraLen]

		skipSize := (pos - lenb) - (lastpos + lenf)

		if err := codec.EncodeControl(int64(lenf), int64(extraLen), int64(skipSize)); err != nil {
			return err
		}
		if err := codec.EncodeDiff(diffSeg); err != nil {
			return err
		}
		if err := codec.EncodeData(extraSeg); err != nil {
			return err
		}

		lastscan = scan - lenb
		lastpos = pos - lenb
		lastoffset = pos - scan

		blocks++
		if opts.Progress != nil {
			_ = opts.Progress.Add(lenf + extraLen)
		}
		log.Debug("emitted control record",
			zap.Int("block", blocks),
			zap.Int("diff_size", lenf),
			zap.Int("copy_size", extraLen),
			zap.Int("skip_size", skipSize),
		)
	}

	return nil
}
