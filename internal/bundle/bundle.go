// Package bundle exports a workspace as a ZIP archive: the source image, the
// transformed result, the current mask and a JSON snapshot of the state.
//
// Entries are compressed with Zstandard (ZIP method 93). Both the compressor
// and the decompressor are registered with archive/zip when the package loads.
package bundle

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fpang/gemini-studio/internal/workspace"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// MethodZstd is the ZIP compression method ID for Zstandard (APPNOTE 6.3.7).
const MethodZstd uint16 = 93

// Entry names.
const (
	SourceName   = "source"
	ResultName   = "result"
	MaskName     = "mask.png"
	SnapshotName = "workspace.json"
)

// ErrNothingToExport is returned for a workspace without a source image.
var ErrNothingToExport = errors.New("workspace has no image to export")

func init() {
	zip.RegisterCompressor(MethodZstd, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	})
	zip.RegisterDecompressor(MethodZstd, func(r io.Reader) io.ReadCloser {
		d, err := zstd.NewReader(r)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return d.IOReadCloser()
	})
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

// Filename names an export archive created at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("gemini-studio-workspace-%d.zip", now.UnixMilli())
}

// Write streams the archive for s to w.
func Write(w io.Writer, s workspace.State, now time.Time) error {
	if s.Source == nil {
		return ErrNothingToExport
	}

	zw := zip.NewWriter(w)

	if err := add(zw, SourceName+"."+workspace.Extension(s.Source.MIMEType), s.Source.Data, now); err != nil {
		return err
	}
	if s.Result != nil {
		if err := add(zw, ResultName+"."+workspace.Extension(s.Result.MIMEType), s.Result.Data, now); err != nil {
			return err
		}
	}
	if m, ok := s.Mask(); ok && m.Ready() && !m.Empty() {
		data, err := m.PNG()
		if err != nil {
			return fmt.Errorf("render mask: %w", err)
		}
		if err := add(zw, MaskName, data, now); err != nil {
			return err
		}
	}

	snap, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := add(zw, SnapshotName, snap, now); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close ZIP writer: %w", err)
	}

	log.Debug().
		Uint64("generation", s.Generation).
		Bool("has_result", s.HasResult()).
		Msg("Workspace bundle written")
	return nil
}

func add(zw *zip.Writer, name string, data []byte, now time.Time) error {
	header := &zip.FileHeader{
		Name:   name,
		Method: MethodZstd,
	}
	header.SetModTime(now)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create ZIP entry for %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write to ZIP for %s: %w", name, err)
	}
	return nil
}
