package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/entity"
)

// Decomposer splits a document into provider-ready extraction units.
type Decomposer struct {
	parser PDFParser
	logger *slog.Logger
}

func NewDecomposer(parser PDFParser, logger *slog.Logger) *Decomposer {
	if logger == nil {
		logger = slog.Default()
	}
	if parser == nil {
		parser = NewPDFParser(logger)
	}
	return &Decomposer{parser: parser, logger: logger}
}

// Decompose returns the units of doc in document order. A PDF always yields
// its text layer as unit 0 (possibly empty) followed by one image unit per
// embedded raster image. JPEG and PNG documents yield a single image unit.
func (d *Decomposer) Decompose(ctx context.Context, doc entity.Document) ([]entity.ExtractionUnit, error) {
	switch {
	case doc.IsPDF():
		return d.decomposePDF(ctx, doc)
	case constants.IsImageMediaType(doc.MediaType):
		d.logger.Debug("ocr.decompose.image", "document", doc.Name, "media_type", doc.MediaType, "bytes", len(doc.Data))
		return []entity.ExtractionUnit{{
			Kind:          entity.UnitImage,
			Content:       entity.DataURL(doc.MediaType, doc.Data),
			Index:         0,
			WholeDocument: true,
		}}, nil
	default:
		return nil, common.NewAppError(common.CodeUnsupportedMediaType,
			fmt.Sprintf("cannot decompose %q", doc.MediaType), common.ErrUnsupportedMediaType)
	}
}

func (d *Decomposer) decomposePDF(ctx context.Context, doc entity.Document) ([]entity.ExtractionUnit, error) {
	start := time.Now()

	text, err := d.parser.Text(ctx, doc.Data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.logger.Warn("ocr.decompose.text_failed", "document", doc.Name, "error", err)
		text = ""
	}
	units := []entity.ExtractionUnit{{Kind: entity.UnitText, Content: text, Index: 0}}

	images, err := d.parser.Images(ctx, doc.Data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.logger.Warn("ocr.decompose.images_failed", "document", doc.Name, "error", err)
		images = nil
	}
	for i, img := range images {
		units = append(units, entity.ExtractionUnit{
			Kind:    entity.UnitImage,
			Content: entity.DataURL(img.MediaType, img.Data),
			Index:   i + 1,
		})
	}

	d.logger.Info("ocr.decompose.pdf",
		"document", doc.Name,
		"text_chars", len(text),
		"images", len(images),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return units, nil
}
