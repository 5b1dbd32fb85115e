package entity

import (
	"encoding/base64"
	"strings"
)

type UnitKind string

const (
	UnitText  UnitKind = "text"
	UnitImage UnitKind = "image"
)

// ExtractionUnit is a provider-ready fragment of a document: either a native
// text layer or a data-URL encoded image.
type ExtractionUnit struct {
	Kind    UnitKind
	Content string
	Index   int
	// WholeDocument marks the single unit produced for a raster document.
	WholeDocument bool
}

// DataURL encodes raw image bytes as a data URL for the given media type.
func DataURL(mediaType string, data []byte) string {
	var b strings.Builder
	b.Grow(len(mediaType) + 13 + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mediaType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}
