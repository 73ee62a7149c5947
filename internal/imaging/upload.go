// Package imaging validates uploaded images and renders the derived images the
// workspace serves: EXIF summaries, thumbnails, the adjustment preview and the
// before/after composite.
//
// Decoders for every accepted format are registered here:
//   - JPEG, PNG, GIF: standard library
//   - WebP, BMP, TIFF: golang.org/x/image
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fpang/gemini-studio/internal/workspace"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxPixels bounds decoded image area so a small file cannot expand into an
// enormous bitmap.
const MaxPixels = 100_000_000

// Upload rejections.
var (
	ErrEmpty       = errors.New("image is empty")
	ErrTooLarge    = errors.New("image exceeds the upload size limit")
	ErrUnsupported = errors.New("unsupported image format")
	ErrTooManyPx   = errors.New("image dimensions are too large")
)

// SupportedFormats maps decoder format names to the MIME type recorded for them.
var SupportedFormats = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// signatures are the leading magic bytes of each supported format.
var signatures = map[string][][]byte{
	"jpeg": {{0xFF, 0xD8}},
	"png":  {{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	"gif":  {[]byte("GIF87a"), []byte("GIF89a")},
	"webp": {[]byte("RIFF")}, // plus "WEBP" at offset 8
	"bmp":  {[]byte("BM")},
	"tiff": {{0x49, 0x49, 0x2A, 0x00}, {0x4D, 0x4D, 0x00, 0x2A}},
}

// Upload is a validated source image.
type Upload struct {
	Data     []byte
	MIMEType string
	Format   string
	Width    int
	Height   int
}

// ReadAll reads at most maxBytes from r. Larger bodies fail with ErrTooLarge.
func ReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}

// Inspect checks that data is a supported image no larger than maxBytes and
// returns its format and dimensions. The declared content type is ignored; the
// format is sniffed from the bytes.
func Inspect(data []byte, maxBytes int64) (Upload, error) {
	if len(data) == 0 {
		return Upload{}, ErrEmpty
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Upload{}, fmt.Errorf("%w: %d bytes, max %d", ErrTooLarge, len(data), maxBytes)
	}

	format := Sniff(data)
	if format == "" {
		log.Debug().
			Str("header", fmt.Sprintf("%x", data[:min(len(data), 16)])).
			Msg("Upload rejected: unknown file signature")
		return Upload{}, ErrUnsupported
	}

	cfg, decoded, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Upload{}, fmt.Errorf("%w: failed to decode %s header: %v", ErrUnsupported, format, err)
	}
	if decoded != format {
		log.Warn().
			Str("signature", format).
			Str("decoder", decoded).
			Msg("File signature and decoder disagree, using decoder format")
		format = decoded
	}
	mimeType, ok := SupportedFormats[format]
	if !ok {
		return Upload{}, fmt.Errorf("%w: %s", ErrUnsupported, format)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return Upload{}, fmt.Errorf("%w: %dx%d", ErrTooManyPx, cfg.Width, cfg.Height)
	}

	return Upload{
		Data:     data,
		MIMEType: mimeType,
		Format:   format,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}

// Sniff returns the format name whose signature data starts with, or "".
func Sniff(data []byte) string {
	for format, sigs := range signatures {
		for _, sig := range sigs {
			if !bytes.HasPrefix(data, sig) {
				continue
			}
			if format == "webp" && (len(data) < 12 || !bytes.Equal(data[8:12], []byte("WEBP"))) {
				continue
			}
			return format
		}
	}
	return ""
}

// Image converts u into the workspace source image.
func (u Upload) Image() workspace.Image {
	return workspace.Image{Data: u.Data, MIMEType: u.MIMEType}
}

// Info describes u for the workspace, including any EXIF summary.
func (u Upload) Info(name string) workspace.ImageInfo {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "image." + u.Format
	}
	return workspace.ImageInfo{
		Name:     name,
		Width:    u.Width,
		Height:   u.Height,
		Size:     len(u.Data),
		Metadata: u.metadata(),
	}
}

// exifFormats are the formats that can carry an EXIF block.
var exifFormats = map[string]bool{"jpeg": true, "tiff": true, "webp": true}

func (u Upload) metadata() map[string]string {
	if !exifFormats[u.Format] {
		return nil
	}
	return ExtractMetadata(u.Data)
}
