package entity

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/common"
)

// Document is an uploaded health report. It is consumed once by the decomposer
// and not retained afterwards.
type Document struct {
	Name      string
	MediaType string
	Data      []byte
	Size      int64
}

// NewDocument builds a Document, resolving the media type from the filename
// extension and falling back to content sniffing.
func NewDocument(name string, data []byte) Document {
	mt := constants.MediaTypeForExt(filepath.Ext(name))
	if mt == "" {
		mt = SniffMediaType(data)
	}
	return Document{Name: name, MediaType: mt, Data: data, Size: int64(len(data))}
}

// SniffMediaType detects the media type of data, without parameters.
func SniffMediaType(data []byte) string {
	mt, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return strings.TrimSpace(mt)
}

// Validate enforces the allowed media types and the size limit.
func (d Document) Validate() error {
	if !constants.IsAllowedMediaType(d.MediaType) {
		return common.NewAppError(common.CodeUnsupportedMediaType,
			fmt.Sprintf("%q is not a PDF, JPEG or PNG document", d.MediaType), common.ErrUnsupportedMediaType)
	}
	size := d.Size
	if size < int64(len(d.Data)) {
		size = int64(len(d.Data))
	}
	if size > constants.MaxDocumentBytes {
		return common.NewAppError(common.CodeOversizeDocument,
			fmt.Sprintf("document is %d bytes, maximum is %d", size, constants.MaxDocumentBytes), common.ErrOversizeDocument)
	}
	return nil
}

func (d Document) IsPDF() bool {
	return d.MediaType == constants.MediaTypePDF
}
