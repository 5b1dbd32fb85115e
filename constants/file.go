package constants

import "strings"

// MaxDocumentBytes is the largest document the pipeline accepts.
const MaxDocumentBytes int64 = 10 << 20

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
)

// AllowedExtensions holds the file extensions accepted for ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

var extToMediaType = map[string]string{
	"pdf":  MediaTypePDF,
	"jpg":  MediaTypeJPEG,
	"jpeg": MediaTypeJPEG,
	"png":  MediaTypePNG,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MediaTypeForExt returns the media type for an allowed extension, or "".
func MediaTypeForExt(ext string) string {
	return extToMediaType[NormalizeExt(ext)]
}

// IsAllowedMediaType reports whether mt is one of PDF, JPEG or PNG.
func IsAllowedMediaType(mt string) bool {
	switch mt {
	case MediaTypePDF, MediaTypeJPEG, MediaTypePNG:
		return true
	}
	return false
}

// IsImageMediaType reports whether mt is a raster type the vision providers accept.
func IsImageMediaType(mt string) bool {
	return mt == MediaTypeJPEG || mt == MediaTypePNG
}
