package workspace

import (
	"fmt"
	"mime"
	"strings"
	"time"
)

// DownloadFilename names a downloaded result after the time of download and
// the result's MIME subtype, e.g. gemini-enhanced-image-1700000000000.png.
func DownloadFilename(mimeType string, now time.Time) string {
	return fmt.Sprintf("gemini-enhanced-image-%d.%s", now.UnixMilli(), Extension(mimeType))
}

// Extension returns the file extension for mimeType: its subtype without
// parameters, or png when there is none.
func Extension(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	_, sub, ok := strings.Cut(mimeType, "/")
	if !ok || sub == "" {
		return "png"
	}
	return sub
}
