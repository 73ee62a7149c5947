package imaging

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// Metadata keys reported in ImageInfo.Metadata.
const (
	MetaMake      = "make"
	MetaModel     = "model"
	MetaDateTaken = "dateTaken"
	MetaLatitude  = "latitude"
	MetaLongitude = "longitude"
)

// ExtractMetadata summarizes the EXIF block of data. Images without EXIF (PNG,
// GIF, most WebP) and unreadable blocks yield nil; metadata is informational
// and never fails an upload.
func ExtractMetadata(data []byte) map[string]string {
	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Msg("No EXIF metadata in upload")
		return nil
	}

	fields := make(map[string]string)

	gps := exifData.GPS
	if gps.Latitude() != 0 || gps.Longitude() != 0 {
		fields[MetaLatitude] = fmt.Sprintf("%f", gps.Latitude())
		fields[MetaLongitude] = fmt.Sprintf("%f", gps.Longitude())
	}

	// DateTimeOriginal > CreateDate > ModifyDate
	for _, t := range []time.Time{exifData.DateTimeOriginal(), exifData.CreateDate(), exifData.ModifyDate()} {
		if !t.IsZero() {
			fields[MetaDateTaken] = t.Format(time.RFC3339)
			break
		}
	}

	if v := strings.TrimSpace(exifData.Make); v != "" {
		fields[MetaMake] = v
	}
	if v := strings.TrimSpace(exifData.Model); v != "" {
		fields[MetaModel] = v
	}

	log.Debug().
		Int("fields", len(fields)).
		Msg("Image metadata extraction complete")

	if len(fields) == 0 {
		return nil
	}
	return fields
}
