// Package driver is the high-level entry point wrapping pkg/bsdiff,
// pkg/bspatch, and pkg/suffixarray for the three CLI binaries: bsdiff,
// bspatch, bsindex. It owns the parts spec.md places in scope but out of
// the algorithmic core: path-or-stream input handling, partial-output
// cleanup on failure, environment-driven configuration, and logging.
package driver

import (
	"bytes"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/dstrick/go-bsdiff/pkg/bserr"
	"github.com/dstrick/go-bsdiff/pkg/bsdiff"
	"github.com/dstrick/go-bsdiff/pkg/bspatch"
	"github.com/dstrick/go-bsdiff/pkg/patchfmt"
	"github.com/dstrick/go-bsdiff/pkg/suffixarray"
	"github.com/dstrick/go-bsdiff/pkg/util"
)

// Source is a small sum type: either a filesystem path or an already-open
// reader. Exactly one of Path/Reader should be set.
type Source struct {
	Path   string
	Reader io.Reader
}

func (s Source) open() (io.ReadCloser, error) {
	if s.Reader != nil {
		return io.NopCloser(s.Reader), nil
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, bserr.Wrap(bserr.Io, "opening "+s.Path, err)
	}
	return f, nil
}

// Sink is the output counterpart of Source: either a filesystem path
// (created fresh, and removed on any later failure) or an already-open
// writer that the caller owns.
type Sink struct {
	Path   string
	Writer io.Writer
}

func (s Sink) open() (io.Writer, func(failed bool) error, error) {
	if s.Writer != nil {
		return s.Writer, func(bool) error { return nil }, nil
	}
	f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, bserr.Wrap(bserr.Io, "creating "+s.Path, err)
	}
	cleanup := func(failed bool) error {
		cerr := f.Close()
		if failed {
			os.Remove(s.Path)
		}
		return cerr
	}
	return f, cleanup, nil
}

// DiffOptions configures a Diff call.
type DiffOptions struct {
	// Format selects the on-disk patch format; the zero value means
	// patchfmt.Classic.
	Format patchfmt.Name
	// LowMem requests the low-memory bzip2 block size. If unset (the
	// zero value), BSDIFF_LOWMEM is consulted.
	LowMem *bool
	// Index, when non-nil, is used instead of building a fresh suffix
	// array over old.
	Index *suffixarray.Index
	// ShowProgress ticks a *progressbar.ProgressBar over the new file's
	// size while scanning.
	ShowProgress bool
	// Quiet silences structured logging (zap.NewNop()).
	Quiet bool
}

func (o DiffOptions) resolveLowMem() (bool, error) {
	if o.LowMem != nil {
		return *o.LowMem, nil
	}
	return LowMemFromEnv()
}

// Diff reads old and new whole from the given sources and writes a patch
// to dest, per opts. On any failure writing to a path-backed Sink, the
// partial file is removed.
func Diff(old, new Source, dest Sink, opts DiffOptions) error {
	oldR, err := old.open()
	if err != nil {
		return err
	}
	defer oldR.Close()
	newR, err := new.open()
	if err != nil {
		return err
	}
	defer newR.Close()

	oldBytes, err := io.ReadAll(oldR)
	if err != nil {
		return bserr.Wrap(bserr.Io, "reading old input", err)
	}
	newBytes, err := io.ReadAll(newR)
	if err != nil {
		return bserr.Wrap(bserr.Io, "reading new input", err)
	}

	lowMem, err := opts.resolveLowMem()
	if err != nil {
		return err
	}
	log, err := NewLogger(opts.Quiet)
	if err != nil {
		return bserr.Wrap(bserr.Io, "building logger", err)
	}
	defer log.Sync() //nolint:errcheck

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(newBytes)), "diffing")
	}

	patch, err := bsdiff.BytesOptions(oldBytes, newBytes, bsdiff.Options{
		Format:   opts.Format,
		Level:    levelForLowMem(lowMem, patchfmt.DefaultLevel, patchfmt.LowMemLevel),
		Index:    opts.Index,
		Logger:   log,
		Progress: bar,
	})
	if err != nil {
		return err
	}

	w, cleanup, err := dest.open()
	if err != nil {
		return err
	}
	_, werr := w.Write(patch)
	cerr := cleanup(werr != nil)
	if werr != nil {
		return bserr.Wrap(bserr.Io, "writing patch", werr)
	}
	return cerr
}

// DiffFiles is Diff with path-based Source/Sink, mirroring the teacher's
// File-suffixed convenience wrappers.
func DiffFiles(oldPath, newPath, patchPath string, opts DiffOptions) error {
	return Diff(Source{Path: oldPath}, Source{Path: newPath}, Sink{Path: patchPath}, opts)
}

// DiffBytes is Diff against in-memory buffers, returning the patch bytes
// directly.
func DiffBytes(old, new []byte, opts DiffOptions) ([]byte, error) {
	lowMem, err := opts.resolveLowMem()
	if err != nil {
		return nil, err
	}
	log, err := NewLogger(opts.Quiet)
	if err != nil {
		return nil, bserr.Wrap(bserr.Io, "building logger", err)
	}
	defer log.Sync() //nolint:errcheck

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(new)), "diffing")
	}

	return bsdiff.BytesOptions(old, new, bsdiff.Options{
		Format:   opts.Format,
		Level:    levelForLowMem(lowMem, patchfmt.DefaultLevel, patchfmt.LowMemLevel),
		Index:    opts.Index,
		Logger:   log,
		Progress: bar,
	})
}

// PatchOptions configures a Patch call.
type PatchOptions struct {
	// Want, if not patchfmt.Auto, requires the patch be in this format.
	Want patchfmt.Name
	// Quiet silences structured logging.
	Quiet bool
}

// Patch applies a patch read from patchSrc to old, writing the
// reconstructed new file to dest. On failure writing to a path-backed
// Sink, the partial file is removed.
func Patch(old, patchSrc Source, dest Sink, opts PatchOptions) error {
	oldR, err := old.open()
	if err != nil {
		return err
	}
	defer oldR.Close()
	patchR, err := patchSrc.open()
	if err != nil {
		return err
	}
	defer patchR.Close()

	oldBytes, err := io.ReadAll(oldR)
	if err != nil {
		return bserr.Wrap(bserr.Io, "reading old input", err)
	}
	patchBytes, err := io.ReadAll(patchR)
	if err != nil {
		return bserr.Wrap(bserr.Io, "reading patch input", err)
	}

	log, err := NewLogger(opts.Quiet)
	if err != nil {
		return bserr.Wrap(bserr.Io, "building logger", err)
	}
	defer log.Sync() //nolint:errcheck

	w, cleanup, err := dest.open()
	if err != nil {
		return err
	}

	var out util.BufWriter
	aerr := bspatch.ReaderOptions(bytes.NewReader(oldBytes), &out, bytes.NewReader(patchBytes), opts.Want, log)
	if aerr == nil {
		_, werr := w.Write(out.Bytes())
		aerr = werr
	}
	cerr := cleanup(aerr != nil)
	if aerr != nil {
		return aerr
	}
	return cerr
}

// PatchFiles is Patch with path-based Source/Sink.
func PatchFiles(oldPath, patchPath, newPath string, opts PatchOptions) error {
	return Patch(Source{Path: oldPath}, Source{Path: patchPath}, Sink{Path: newPath}, opts)
}

// PatchBytes is Patch against in-memory buffers.
func PatchBytes(old, patch []byte, opts PatchOptions) ([]byte, error) {
	log, err := NewLogger(opts.Quiet)
	if err != nil {
		return nil, bserr.Wrap(bserr.Io, "building logger", err)
	}
	defer log.Sync() //nolint:errcheck

	var out util.BufWriter
	if err := bspatch.ReaderOptions(bytes.NewReader(old), &out, bytes.NewReader(patch), opts.Want, log); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// IndexOptions configures an Index call.
type IndexOptions struct {
	Quiet bool
}

// Index builds a suffix array over the contents of src and serializes it
// to dest.
func Index(src Source, dest Sink, _ IndexOptions) error {
	r, err := src.open()
	if err != nil {
		return err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return bserr.Wrap(bserr.Io, "reading index input", err)
	}

	idx := suffixarray.Build(data)

	w, cleanup, err := dest.open()
	if err != nil {
		return err
	}
	werr := idx.Serialize(w)
	cerr := cleanup(werr != nil)
	if werr != nil {
		return werr
	}
	return cerr
}

// IndexFiles is Index with path-based Source/Sink.
func IndexFiles(srcPath, indexPath string, opts IndexOptions) error {
	return Index(Source{Path: srcPath}, Sink{Path: indexPath}, opts)
}

