package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/entity"
)

// LoadDocument reads path into a Document. Oversize files are rejected from
// their stat before any bytes are read.
func LoadDocument(path string) (entity.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return entity.Document{}, err
	}
	if info.IsDir() {
		return entity.Document{}, fmt.Errorf("%w: %s is a directory", common.ErrInvalidInput, path)
	}
	if info.Size() > constants.MaxDocumentBytes {
		return entity.Document{}, common.NewAppError(common.CodeOversizeDocument,
			fmt.Sprintf("%s is %d bytes, maximum is %d", filepath.Base(path), info.Size(), constants.MaxDocumentBytes),
			common.ErrOversizeDocument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Document{}, err
	}
	doc := entity.NewDocument(filepath.Base(path), data)
	if err := doc.Validate(); err != nil {
		return entity.Document{}, err
	}
	return doc, nil
}

// Accepts reports whether path names a report file the ingest side handles:
// a PDF, JPEG or PNG extension and, when skipHidden is set, no leading dot.
func Accepts(path string, skipHidden bool) bool {
	if skipHidden && hidden(path) {
		return false
	}
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
